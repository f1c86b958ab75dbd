package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PPTXExtractor extracts text from PowerPoint decks. It streams the OOXML
// tokens of each slide, emitting shape text and tables in document order
// under a per-slide marker line.
type PPTXExtractor struct{}

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (e *PPTXExtractor) Extract(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pptx content")
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: n, file: f})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var out []string
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", fmt.Errorf("open slide %d: %w", s.num, err)
		}
		slideData, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read slide %d: %w", s.num, err)
		}

		lines, err := parseSlide(slideData)
		if err != nil {
			return "", fmt.Errorf("parse slide %d: %w", s.num, err)
		}

		out = append(out, fmt.Sprintf("--- Slide %d ---", s.num))
		out = append(out, lines...)
	}

	return strings.TrimSpace(strings.Join(out, "\n")), nil
}

func (e *PPTXExtractor) Supports() []ContentType {
	return []ContentType{TypePPTX, TypeMSPowerPoint}
}

// slideState tracks the streaming XML decoder state for one slide.
type slideState struct {
	lines []string

	inText     bool
	paragraph  strings.Builder
	shapeParas []string

	inTable bool
	cell    strings.Builder
	cells   []string
}

// parseSlide streams through one slide's drawing XML. Shape paragraphs
// become lines; table rows become one line each with non-empty cells
// joined by " | ".
func parseSlide(data []byte) ([]string, error) {
	s := &slideState{}
	dec := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				s.inTable = true
			case "tr":
				s.cells = nil
			case "tc":
				s.cell.Reset()
			case "t":
				s.inText = true
			}
		case xml.EndElement:
			s.handleEnd(t)
		case xml.CharData:
			if !s.inText {
				break
			}
			if s.inTable {
				s.cell.Write(t)
			} else {
				s.paragraph.Write(t)
			}
		}
	}

	return s.lines, nil
}

func (s *slideState) handleEnd(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		s.inText = false
	case "p":
		if s.inTable {
			return
		}
		para := strings.TrimSpace(s.paragraph.String())
		s.paragraph.Reset()
		if para != "" {
			s.shapeParas = append(s.shapeParas, para)
		}
	case "txBody":
		if s.inTable {
			return
		}
		if len(s.shapeParas) > 0 {
			s.lines = append(s.lines, strings.Join(s.shapeParas, "\n"))
			s.shapeParas = nil
		}
	case "tc":
		s.cells = append(s.cells, strings.TrimSpace(s.cell.String()))
		s.cell.Reset()
	case "tr":
		var nonEmpty []string
		for _, c := range s.cells {
			if c != "" {
				nonEmpty = append(nonEmpty, c)
			}
		}
		if len(nonEmpty) > 0 {
			s.lines = append(s.lines, strings.Join(nonEmpty, " | "))
		}
	case "tbl":
		s.inTable = false
	}
}
