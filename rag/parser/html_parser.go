package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// HTMLParser handles HTML files. Pages are converted to markdown so heading
// and list structure survives into the plain text content.
type HTMLParser struct {
	converter *md.Converter
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		converter: md.NewConverter("", true, nil),
	}
}

// Parse reads and parses HTML from the reader
func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML: %w", err)
	}
	return p.parse(string(data), "")
}

// ParseFile reads and parses an HTML file
func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.parse(string(data), filePath)
}

// FileType returns the file type this parser handles
func (p *HTMLParser) FileType() FileType {
	return FileTypeHTML
}

func (p *HTMLParser) parse(content, filePath string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := extractHTMLTitle(doc, filePath)

	doc.Find("script, style, noscript").Remove()
	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = content
	}

	text, err := p.converter.ConvertString(body)
	if err != nil {
		// Markdown conversion is best effort; fall back to the raw text
		// nodes goquery sees.
		text = doc.Find("body").Text()
	}

	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	return &Document{
		Content: text,
		Title:   title,
		Metadata: map[string]string{
			"file_size":  strconv.Itoa(len(content)),
			"link_count": strconv.Itoa(doc.Find("a[href]").Length()),
		},
	}, nil
}

// extractHTMLTitle prefers the <title> tag, then the first <h1>, then the
// file name.
func extractHTMLTitle(doc *goquery.Document, filePath string) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if filePath == "" {
		return "Untitled"
	}
	return fileNameTitle(filePath)
}
