package ingest

import "testing"

func TestGoogleDocExtractor(t *testing.T) {
	body := []byte(`{
		"body": {
			"content": [
				{"sectionBreak": {}},
				{"paragraph": {"elements": [
					{"textRun": {"content": "First paragraph.\n"}},
					{"textRun": {"content": "Same paragraph, second run.\n"}}
				]}},
				{"table": {}},
				{"paragraph": {"elements": [
					{"inlineObjectElement": {}},
					{"textRun": {"content": "Second paragraph.\n"}}
				]}}
			]
		}
	}`)

	got, err := (&GoogleDocExtractor{}).Extract(body)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "First paragraph.\nSame paragraph, second run.\nSecond paragraph."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGoogleDocExtractorEmptyBody(t *testing.T) {
	got, err := (&GoogleDocExtractor{}).Extract([]byte(`{"body": {"content": []}}`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestGoogleDocExtractorMalformedJSON(t *testing.T) {
	if _, err := (&GoogleDocExtractor{}).Extract([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
