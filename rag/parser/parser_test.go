package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docentai/docent/rag"
)

func TestFileTypeFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want FileType
	}{
		{"pdf", FileTypePDF},
		{"PDF", FileTypePDF},
		{"docx", FileTypeDocx},
		{"pptx", FileTypePPTX},
		{"md", FileTypeMD},
		{"markdown", FileTypeMD},
		{"html", FileTypeHTML},
		{"htm", FileTypeHTML},
		{"txt", FileTypeTXT},
		{"xlsx", FileTypeUnknown},
		{"", FileTypeUnknown},
	}
	for _, tt := range tests {
		if got := FileTypeFromExt(tt.ext); got != tt.want {
			t.Errorf("FileTypeFromExt(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestDefaultRegistryRouting(t *testing.T) {
	reg := DefaultRegistry()

	paths := map[string]FileType{
		"doc.pdf":         FileTypePDF,
		"report.docx":     FileTypeDocx,
		"slides.pptx":     FileTypePPTX,
		"notes.md":        FileTypeMD,
		"notes.markdown":  FileTypeMD,
		"page.html":       FileTypeHTML,
		"page.htm":        FileTypeHTML,
		"plain.txt":       FileTypeTXT,
		"/abs/path/a.pdf": FileTypePDF,
	}
	for path, want := range paths {
		p, ok := reg.GetParserForPath(path)
		if !ok {
			t.Fatalf("no parser for %q", path)
		}
		if p.FileType() != want {
			t.Errorf("parser for %q handles %v, want %v", path, p.FileType(), want)
		}
		if !reg.Supports(path) {
			t.Errorf("Supports(%q) = false", path)
		}
	}

	if _, ok := reg.GetParserForPath("image.png"); ok {
		t.Error("expected no parser for .png")
	}
	if reg.Supports("archive.tar.gz") {
		t.Error("Supports(archive.tar.gz) = true")
	}
}

func TestRegistryParseFileUnsupported(t *testing.T) {
	reg := DefaultRegistry()
	if _, err := reg.ParseFile(context.Background(), "data.csv"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestTxtParserPreservesContent(t *testing.T) {
	input := "First line.\n\nSecond paragraph with trailing spaces.  \nThird line."
	p := NewTxtParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != input {
		t.Errorf("content altered:\ngot  %q\nwant %q", doc.Content, input)
	}
	if doc.Title != "First line." {
		t.Errorf("title = %q, want %q", doc.Title, "First line.")
	}
}

func TestMarkdownParserFlattensStructure(t *testing.T) {
	input := "# Guide\n\nIntro paragraph.\n\n## Install\n\nRun the installer.\n\n```\nmake install\n```\n"
	p := NewMarkdownParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Guide\n\nIntro paragraph.\n\nInstall\n\nRun the installer.\n\nmake install"
	if doc.Content != want {
		t.Errorf("content:\ngot  %q\nwant %q", doc.Content, want)
	}
	if doc.Title != "Guide" {
		t.Errorf("title = %q, want %q", doc.Title, "Guide")
	}
	if doc.Metadata["heading_count"] != "2" {
		t.Errorf("heading_count = %q, want %q", doc.Metadata["heading_count"], "2")
	}
}

func TestMarkdownParserNoDuplicatedParagraphText(t *testing.T) {
	input := "Some plain paragraph.\n"
	p := NewMarkdownParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(doc.Content, "Some plain paragraph."); got != 1 {
		t.Errorf("paragraph text appears %d times, want 1:\n%q", got, doc.Content)
	}
}

func TestMarkdownParserStripsFrontmatter(t *testing.T) {
	input := "---\ntitle: ignored\ndate: 2024-01-01\n---\n\n# Real Title\n\nBody text."
	p := NewMarkdownParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(doc.Content, "ignored") {
		t.Errorf("frontmatter leaked into content: %q", doc.Content)
	}
	if doc.Title != "Real Title" {
		t.Errorf("title = %q, want %q", doc.Title, "Real Title")
	}
	if !strings.Contains(doc.Content, "Body text.") {
		t.Errorf("body missing from content: %q", doc.Content)
	}
}

func TestMarkdownParserListItems(t *testing.T) {
	input := "Shopping:\n\n- apples\n- pears\n"
	p := NewMarkdownParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.Content, "apples") || !strings.Contains(doc.Content, "pears") {
		t.Errorf("list items missing: %q", doc.Content)
	}
}

func TestHTMLParserExtractsTextAndTitle(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
<head>
  <title>My Page</title>
  <style>body { color: red; }</style>
  <script>alert("hi");</script>
</head>
<body>
  <h1>Welcome</h1>
  <p>First paragraph.</p>
  <p>Second paragraph with a <a href="https://example.com">link</a>.</p>
</body>
</html>`
	p := NewHTMLParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "My Page" {
		t.Errorf("title = %q, want %q", doc.Title, "My Page")
	}
	for _, want := range []string{"Welcome", "First paragraph.", "Second paragraph"} {
		if !strings.Contains(doc.Content, want) {
			t.Errorf("content missing %q:\n%q", want, doc.Content)
		}
	}
	for _, gone := range []string{"alert", "color: red"} {
		if strings.Contains(doc.Content, gone) {
			t.Errorf("content contains script/style text %q:\n%q", gone, doc.Content)
		}
	}
	if doc.Metadata["link_count"] != "1" {
		t.Errorf("link_count = %q, want %q", doc.Metadata["link_count"], "1")
	}
}

func TestHTMLParserTitleFallsBackToH1(t *testing.T) {
	input := "<html><body><h1>Only Heading</h1><p>Text.</p></body></html>"
	p := NewHTMLParser()

	doc, err := p.Parse(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Only Heading" {
		t.Errorf("title = %q, want %q", doc.Title, "Only Heading")
	}
}

const slideXMLHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`

const slideXMLFooter = `</p:spTree></p:cSld></p:sld>`

func shapeXML(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString("<p:sp><p:txBody>")
	for _, para := range paragraphs {
		b.WriteString("<a:p><a:r><a:t>")
		b.WriteString(para)
		b.WriteString("</a:t></a:r></a:p>")
	}
	b.WriteString("</p:txBody></p:sp>")
	return b.String()
}

func buildPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	ct, err := zw.Create("[Content_Types].xml")
	if err != nil {
		t.Fatalf("create content types: %v", err)
	}
	ct.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))

	for name, body := range slides {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestPPTXParserExtractsSlides(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide1.xml": slideXMLHeader + shapeXML("Quarterly Review") + shapeXML("Revenue up", "Costs down") + slideXMLFooter,
		"ppt/slides/slide2.xml": slideXMLHeader + shapeXML("Next Steps") + slideXMLFooter,
	})
	p := NewPPTXParser()

	doc, err := p.Parse(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "--- Slide 1 ---\nQuarterly Review\n\nRevenue up\nCosts down\n\n--- Slide 2 ---\nNext Steps"
	if doc.Content != want {
		t.Errorf("content:\ngot  %q\nwant %q", doc.Content, want)
	}
	if doc.Title != "Quarterly Review" {
		t.Errorf("title = %q, want %q", doc.Title, "Quarterly Review")
	}
	if doc.Metadata["num_slides"] != "2" {
		t.Errorf("num_slides = %q, want %q", doc.Metadata["num_slides"], "2")
	}
}

func TestPPTXParserOrdersSlidesNumerically(t *testing.T) {
	// slide10 sorts after slide2 numerically even though it is stored first.
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide10.xml": slideXMLHeader + shapeXML("Last") + slideXMLFooter,
		"ppt/slides/slide2.xml":  slideXMLHeader + shapeXML("First") + slideXMLFooter,
	})
	p := NewPPTXParser()

	doc, err := p.Parse(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := strings.Index(doc.Content, "First")
	last := strings.Index(doc.Content, "Last")
	if first < 0 || last < 0 || first > last {
		t.Errorf("slides out of order:\n%q", doc.Content)
	}
}

func TestPPTXParserSkipsEmptySlides(t *testing.T) {
	data := buildPPTX(t, map[string]string{
		"ppt/slides/slide1.xml": slideXMLHeader + shapeXML("Only text") + slideXMLFooter,
		"ppt/slides/slide2.xml": slideXMLHeader + slideXMLFooter,
	})
	p := NewPPTXParser()

	doc, err := p.Parse(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(doc.Content, "--- Slide 2 ---") {
		t.Errorf("empty slide rendered: %q", doc.Content)
	}
	if doc.Metadata["num_slides"] != "2" {
		t.Errorf("num_slides = %q, want %q", doc.Metadata["num_slides"], "2")
	}
}

func TestPPTXParserRejectsGarbage(t *testing.T) {
	p := NewPPTXParser()
	_, err := p.Parse(context.Background(), strings.NewReader("this is not a zip archive"))
	if err == nil {
		t.Fatal("expected error for non-zip input")
	}
	if !errors.Is(err, rag.ErrMalformedInput) {
		t.Errorf("error %v is not ErrMalformedInput", err)
	}
}

func TestPDFParserRejectsGarbage(t *testing.T) {
	p := NewPDFParser()
	_, err := p.Parse(context.Background(), strings.NewReader("this is not a pdf"))
	if err == nil {
		t.Fatal("expected error for non-pdf input")
	}
	if !errors.Is(err, rag.ErrMalformedInput) {
		t.Errorf("error %v is not ErrMalformedInput", err)
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"first line", "Short title\nmore text", "x.txt", "Short title"},
		{"heading marker stripped", "# Heading\nbody", "x.txt", "Heading"},
		{"long first line falls back", strings.Repeat("a", 150) + "\nrest", "notes.txt", "notes"},
		{"empty content uses file name", "", "/tmp/report.pdf", "report"},
		{"empty everything", "", "", "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.content, tt.path); got != tt.want {
				t.Errorf("ExtractTitle(%q, %q) = %q, want %q", tt.content, tt.path, got, tt.want)
			}
		})
	}
}
