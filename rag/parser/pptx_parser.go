package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/docentai/docent/rag"
)

var slideNamePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXParser handles PowerPoint .pptx files. A pptx is a zip of XML parts;
// text lives in the a:t runs of each slide's shape tree.
type PPTXParser struct{}

// NewPPTXParser creates a new pptx parser
func NewPPTXParser() *PPTXParser {
	return &PPTXParser{}
}

// Parse reads a pptx document from the reader
func (p *PPTXParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pptx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pptx: %v", rag.ErrMalformedInput, err)
	}
	return p.parseZip(zr.File, "")
}

// ParseFile reads and parses a pptx file
func (p *PPTXParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pptx: %v", rag.ErrMalformedInput, err)
	}
	defer zr.Close()
	return p.parseZip(zr.File, filePath)
}

// FileType returns the file type this parser handles
func (p *PPTXParser) FileType() FileType {
	return FileTypePPTX
}

type slideFile struct {
	number int
	file   *zip.File
}

func (p *PPTXParser) parseZip(files []*zip.File, filePath string) (*Document, error) {
	var slides []slideFile
	for _, f := range files {
		m := slideNamePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var sections []string
	var title string

	for i, s := range slides {
		shapes, err := readSlideShapes(s.file)
		if err != nil {
			return nil, err
		}
		if len(shapes) == 0 {
			continue
		}
		if title == "" && len(shapes[0]) < 100 {
			title = shapes[0]
		}
		sections = append(sections, fmt.Sprintf("--- Slide %d ---\n%s", i+1, strings.Join(shapes, "\n\n")))
	}

	if title == "" {
		if filePath == "" {
			title = "Untitled"
		} else {
			title = fileNameTitle(filePath)
		}
	}

	return &Document{
		Content: strings.Join(sections, "\n\n"),
		Title:   title,
		Metadata: map[string]string{
			"num_slides": strconv.Itoa(len(slides)),
		},
	}, nil
}

// readSlideShapes returns the text of each shape on a slide, paragraph
// breaks preserved as newlines.
func readSlideShapes(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open slide %s: %v", rag.ErrMalformedInput, f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read slide %s: %v", rag.ErrMalformedInput, f.Name, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var shapes []string
	var cur strings.Builder
	inBody := false
	inRun := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: slide %s: %v", rag.ErrMalformedInput, f.Name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				inBody = true
				cur.Reset()
			case "p":
				if inBody && cur.Len() > 0 {
					cur.WriteByte('\n')
				}
			case "br":
				if inBody {
					cur.WriteByte('\n')
				}
			case "t":
				if inBody {
					inRun = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "txBody":
				if s := strings.TrimSpace(cur.String()); s != "" {
					shapes = append(shapes, s)
				}
				inBody = false
			case "t":
				inRun = false
			}
		case xml.CharData:
			if inRun {
				cur.Write(t)
			}
		}
	}
	return shapes, nil
}
