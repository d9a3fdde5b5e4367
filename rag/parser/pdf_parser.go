package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/phuslu/log"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/layout"
)

// PDFParser extracts positioned text from PDF files and annotates it with
// layout context. With PreserveLayout off it degrades to plain sequential
// text per page.
type PDFParser struct {
	PreserveLayout bool
	Layout         layout.Config
}

// NewPDFParser creates a PDF parser with layout preservation enabled.
func NewPDFParser() *PDFParser {
	return &PDFParser{
		PreserveLayout: true,
		Layout:         layout.DefaultConfig(),
	}
}

// Parse reads a PDF from the reader. The underlying library needs random
// access, so the stream is spooled to a temp file first.
func (p *PDFParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	tmp, err := os.CreateTemp("", "docent-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	return p.parseAt(tmpPath, "")
}

// ParseFile reads and parses a PDF file
func (p *PDFParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	return p.parseAt(filePath, filePath)
}

// FileType returns the file type this parser handles
func (p *PDFParser) FileType() FileType {
	return FileTypePDF
}

// parseAt opens the PDF at path. displayPath is the user-facing name used
// for the title and log lines; it is empty when parsing from a stream.
func (p *PDFParser) parseAt(path, displayPath string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", rag.ErrMalformedInput, err)
	}
	defer f.Close()

	numPages := reader.NumPage()

	var pages []layout.PageText
	elements := 0
	headings := 0
	var sizeSum float64

	for i := 1; i <= numPages; i++ {
		els, err := extractPageElements(reader, i)
		if err != nil {
			log.Warn().Err(err).Str("file", displayPath).Int("page", i).Msg("skipping malformed pdf page")
			continue
		}
		if len(els) == 0 {
			continue
		}

		w, h := pageSize(reader, i)
		pg := layout.Page{
			Number:   i,
			Width:    w,
			Height:   h,
			Elements: els,
		}
		blocks := layout.ExtractPage(pg, p.Layout)
		if len(blocks) == 0 {
			continue
		}

		elements += len(blocks)
		for _, b := range blocks {
			if b.Heading {
				headings++
			}
			sizeSum += b.Line.FontSize
		}

		var text string
		if p.PreserveLayout {
			text = layout.RenderBlocks(blocks)
		} else {
			text = layout.PlainText(pg)
		}
		pages = append(pages, layout.PageText{Number: i, Text: text})
	}

	// Some PDFs carry no usable positioned text (broken font maps and the
	// like). Fall back to the library's plain text extraction before giving
	// up.
	if len(pages) == 0 {
		pages = plainTextPages(reader)
	}

	content := layout.JoinPages(pages)

	avgSize := 0.0
	if elements > 0 {
		avgSize = sizeSum / float64(elements)
	}

	title := "Untitled"
	if displayPath != "" {
		title = fileNameTitle(displayPath)
	}

	return &Document{
		Content: content,
		Title:   title,
		Metadata: map[string]string{
			"num_pages":         strconv.Itoa(len(pages)),
			"num_text_elements": strconv.Itoa(elements),
			"num_headings":      strconv.Itoa(headings),
			"avg_font_size":     fmt.Sprintf("%.1f", avgSize),
			"layout_preserved":  strconv.FormatBool(p.PreserveLayout),
		},
	}, nil
}

// extractPageElements pulls positioned text runs off one page. The pdf
// library panics on some malformed content streams, so recover and report
// the page as unparseable instead.
func extractPageElements(reader *pdflib.Reader, pageNum int) (els []layout.TextElement, err error) {
	defer func() {
		if r := recover(); r != nil {
			els = nil
			err = fmt.Errorf("%w: page %d: %v", rag.ErrMalformedInput, pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}

	for _, t := range page.Content().Text {
		els = append(els, layout.TextElement{
			Text:     t.S,
			X0:       t.X,
			Y0:       t.Y,
			X1:       t.X + t.W,
			Y1:       t.Y + t.FontSize,
			FontSize: t.FontSize,
			Bold:     isBoldFont(t.Font),
			Italic:   isItalicFont(t.Font),
			Page:     pageNum,
		})
	}
	return els, nil
}

// pageSize resolves the page MediaBox, walking up Parent nodes since the box
// is often inherited. Returns zeros when it cannot be resolved; the layout
// package then falls back to the content extent.
func pageSize(reader *pdflib.Reader, pageNum int) (w, h float64) {
	defer func() {
		if r := recover(); r != nil {
			w, h = 0, 0
		}
	}()

	v := reader.Page(pageNum).V
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() >= 4 {
			x0 := mb.Index(0).Float64()
			y0 := mb.Index(1).Float64()
			x1 := mb.Index(2).Float64()
			y1 := mb.Index(3).Float64()
			return x1 - x0, y1 - y0
		}
		v = v.Key("Parent")
	}
	return 0, 0
}

// plainTextPages extracts whole-page text without position data.
func plainTextPages(reader *pdflib.Reader) []layout.PageText {
	var pages []layout.PageText
	for i := 1; i <= reader.NumPage(); i++ {
		text, err := plainPageText(reader, i)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("skipping malformed pdf page")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, layout.PageText{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages
}

func plainPageText(reader *pdflib.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: page %d: %v", rag.ErrMalformedInput, pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func isBoldFont(name string) bool {
	return strings.Contains(strings.ToLower(name), "bold")
}

func isItalicFont(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "italic") || strings.Contains(lower, "oblique")
}
