// Package docx reads paragraph text out of Office Open XML word documents.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docintake/internal/model"
)

const (
	documentPart   = "word/document.xml"
	wordNS         = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	markupCompatNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// ReadFile reads the paragraphs of the document at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.ParseError(eris.Wrap(err, "docx: open"))
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return nil, model.ParseError(eris.Wrap(err, "docx: stat"))
	}
	return ReadParagraphs(f, info.Size())
}

// ReadParagraphs returns one string per w:p in document order. Empty
// paragraphs are kept so blank lines survive the join.
func ReadParagraphs(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, model.ParseError(eris.Wrap(err, "docx: open archive"))
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, model.ParseError(eris.Errorf("docx: missing %s", documentPart))
	}

	rc, err := part.Open()
	if err != nil {
		return nil, model.ParseError(eris.Wrapf(err, "docx: open %s", documentPart))
	}
	defer rc.Close() //nolint:errcheck

	paras, err := paragraphs(xml.NewDecoder(rc))
	if err != nil {
		return nil, model.ParseError(err)
	}
	return paras, nil
}

// paragraphs streams the document body. Only run content counts as text:
// paragraph and run properties are skipped, and so are text boxes and
// markup-compatibility blocks, which Word writes twice (Choice and Fallback).
func paragraphs(dec *xml.Decoder) ([]string, error) {
	var (
		out    []string
		cur    strings.Builder
		depth  int
		runs   int
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "docx: decode document xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipElement(t.Name) {
				if err := dec.Skip(); err != nil {
					return nil, eris.Wrapf(err, "docx: skip %s", t.Name.Local)
				}
				continue
			}
			if t.Name.Space != wordNS {
				continue
			}
			inRun := depth > 0 && runs > 0
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "r":
				runs++
			case "t":
				inText = inRun
			case "tab":
				if inRun {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inRun {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if runs > 0 {
					runs--
				}
			case "p":
				if depth > 0 {
					depth--
					if depth == 0 {
						runs = 0
						out = append(out, cur.String())
					}
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}

	if depth != 0 {
		return nil, eris.New("docx: unterminated paragraph")
	}
	return out, nil
}

func skipElement(name xml.Name) bool {
	switch name.Space {
	case wordNS:
		switch name.Local {
		case "pPr", "rPr", "txbxContent":
			return true
		}
	case markupCompatNS:
		return name.Local == "AlternateContent"
	}
	return false
}
