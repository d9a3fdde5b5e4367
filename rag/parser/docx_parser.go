package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/docentai/docent/rag"
)

// DocxParser handles Word .docx files.
type DocxParser struct{}

// NewDocxParser creates a new docx parser
func NewDocxParser() *DocxParser {
	return &DocxParser{}
}

// Parse reads a docx document from the reader. The underlying library needs
// a ReaderAt and a size, so the stream is spooled to a temp file first.
func (p *DocxParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	tmp, err := os.CreateTemp("", "docent-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := p.parseReader(tmp, size, "")
	tmp.Close()
	return doc, err
}

// ParseFile reads and parses a docx file
func (p *DocxParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return p.parseReader(f, info.Size(), filePath)
}

// FileType returns the file type this parser handles
func (p *DocxParser) FileType() FileType {
	return FileTypeDocx
}

func (p *DocxParser) parseReader(r io.ReaderAt, size int64, filePath string) (*Document, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %v", rag.ErrMalformedInput, err)
	}

	var parts []string
	var title string
	paragraphs := 0
	headings := 0

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		paragraphs++
		if docxIsHeading(para) {
			headings++
			if title == "" {
				title = text
			}
		}
		parts = append(parts, text)
	}

	content := strings.Join(parts, "\n\n")
	if title == "" {
		title = ExtractTitle(content, filePath)
	}

	return &Document{
		Content: content,
		Title:   title,
		Metadata: map[string]string{
			"num_paragraphs": strconv.Itoa(paragraphs),
			"num_headings":   strconv.Itoa(headings),
		},
	}, nil
}

// docxIsHeading reports whether a paragraph carries a Heading style.
func docxIsHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := strings.ToLower(para.Properties.Style.Val)
	return strings.HasPrefix(style, "heading")
}

// docxParagraphText concatenates the text runs of one paragraph.
func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
