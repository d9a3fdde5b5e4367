package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse reads and parses markdown from the reader
func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}
	return p.parse(data, ""), nil
}

// ParseFile reads and parses a markdown file
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.parse(data, filePath), nil
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}

// parse walks the goldmark AST and flattens it to plain text. Headings stay
// on their own line and blocks are separated by blank lines so downstream
// chunking sees paragraph boundaries.
func (p *MarkdownParser) parse(data []byte, filePath string) *Document {
	src := stripFrontmatter(data)

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	var parts []string
	var title string
	headings := 0

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		t := extractNodeText(n, src)
		if t == "" {
			continue
		}
		if h, ok := n.(*ast.Heading); ok {
			headings++
			if title == "" && h.Level == 1 {
				title = t
			}
		}
		parts = append(parts, t)
	}

	content := strings.Join(parts, "\n\n")
	if title == "" {
		title = ExtractTitle(content, filePath)
	}

	return &Document{
		Content: content,
		Title:   title,
		Metadata: map[string]string{
			"file_size":     strconv.Itoa(len(data)),
			"heading_count": strconv.Itoa(headings),
		},
	}
}

// extractNodeText gets the text content of a goldmark AST node. Raw blocks
// (code fences, HTML blocks) carry their text in Lines; everything else
// carries it in inline Text descendants.
func extractNodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if s := extractNodeText(c, src); s != "" {
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			buf.WriteString(s)
		}
	}
	return strings.TrimSpace(buf.String())
}

// stripFrontmatter removes a leading YAML frontmatter block delimited by
// "---" lines.
func stripFrontmatter(data []byte) []byte {
	var rest []byte
	switch {
	case bytes.HasPrefix(data, []byte("---\n")):
		rest = data[4:]
	case bytes.HasPrefix(data, []byte("---\r\n")):
		rest = data[5:]
	default:
		return data
	}
	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return data
	}
	tail := rest[idx+len("\n---"):]
	if nl := bytes.IndexByte(tail, '\n'); nl >= 0 {
		return tail[nl+1:]
	}
	return nil
}
