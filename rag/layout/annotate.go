package layout

import (
	"fmt"
	"strings"
)

// PositionTag places a line in the page's 3x3 grid, e.g. "top-left",
// "middle-center", "bottom-right".
type PositionTag string

// Page carries one page's elements and dimensions through extraction.
type Page struct {
	Number   int
	Width    float64
	Height   float64
	Elements []TextElement
}

// Config controls heading detection.
type Config struct {
	// HeadingScale marks a line as heading when its font size strictly
	// exceeds HeadingScale times the page median.
	HeadingScale float64

	// HeadingMaxWords marks a uniformly bold line as heading when it has
	// fewer words than this.
	HeadingMaxWords int
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		HeadingScale:    1.2,
		HeadingMaxWords: 10,
	}
}

// AnnotatedBlock pairs a text line with its layout classification. It is the
// unit written into the vector index.
type AnnotatedBlock struct {
	Line     TextLine
	Position PositionTag
	Heading  bool
	Page     int
}

// ExtractPage produces the ordered annotated blocks for a single page. A
// page with zero extractable elements yields zero blocks.
func ExtractPage(page Page, cfg Config) []AnnotatedBlock {
	lines := BuildLines(page.Elements)
	if len(lines) == 0 {
		return nil
	}

	if cfg.HeadingScale <= 0 {
		cfg.HeadingScale = DefaultConfig().HeadingScale
	}
	if cfg.HeadingMaxWords <= 0 {
		cfg.HeadingMaxWords = DefaultConfig().HeadingMaxWords
	}

	width, height := page.Width, page.Height
	if width <= 0 || height <= 0 {
		width, height = contentExtent(lines)
	}

	median := medianFontSize(lines)

	blocks := make([]AnnotatedBlock, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, AnnotatedBlock{
			Line:     line,
			Position: classifyPosition(line, width, height),
			Heading:  isHeading(line, median, cfg),
			Page:     page.Number,
		})
	}
	return blocks
}

// isHeading applies the two heading rules: a font size strictly above the
// scaled page median, or a short uniformly bold line. A size exactly at the
// threshold stays body text.
func isHeading(line TextLine, median float64, cfg Config) bool {
	if median > 0 && line.FontSize > cfg.HeadingScale*median {
		return true
	}
	if line.Bold && len(strings.Fields(line.Text())) < cfg.HeadingMaxWords {
		return true
	}
	return false
}

// classifyPosition assigns the grid cell containing the line's bounding-box
// center. Thirds are fractional; a center on a boundary belongs to the
// upper/right cell so every line lands in exactly one cell.
func classifyPosition(line TextLine, pageWidth, pageHeight float64) PositionTag {
	cx, cy := line.centerX(), line.centerY()

	var horizontal string
	switch {
	case cx < pageWidth/3:
		horizontal = "left"
	case cx < 2*pageWidth/3:
		horizontal = "center"
	default:
		horizontal = "right"
	}

	// y grows upward: the top third starts at 2/3 of the page height.
	var vertical string
	switch {
	case cy >= 2*pageHeight/3:
		vertical = "top"
	case cy >= pageHeight/3:
		vertical = "middle"
	default:
		vertical = "bottom"
	}

	return PositionTag(vertical + "-" + horizontal)
}

// contentExtent derives page dimensions from the lines themselves, for
// pages that do not report a media box.
func contentExtent(lines []TextLine) (width, height float64) {
	for _, l := range lines {
		if l.X1 > width {
			width = l.X1
		}
		if l.Y1 > height {
			height = l.Y1
		}
	}
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return width, height
}

// Annotation renders the bracketed metadata prefix embedded ahead of the
// line text, so retrieval sees layout as part of the content.
func (b AnnotatedBlock) Annotation() string {
	blockType := "body"
	if b.Heading {
		blockType = "heading"
	}

	style := "plain"
	switch {
	case b.Line.Bold:
		style = "bold"
	case b.Line.Italic:
		style = "italic"
	}

	return fmt.Sprintf("[position:%s | type:%s | size:%.1f | style:%s | bbox:[%.0f,%.0f,%.0f,%.0f]]",
		b.Position, blockType, b.Line.FontSize, style,
		b.Line.X0, b.Line.Y0, b.Line.X1, b.Line.Y1)
}

// String renders the block as stored: annotation line, then the text.
func (b AnnotatedBlock) String() string {
	return b.Annotation() + "\n" + b.Line.Text()
}

const pageSeparator = "================================================================================"

// PageText holds one page's rendered text for document assembly.
type PageText struct {
	Number int
	Text   string
}

// RenderBlocks serializes a page's blocks, one blank line between blocks.
func RenderBlocks(blocks []AnnotatedBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// PlainText renders a page with layout preservation disabled: line texts in
// reading order, no tagging.
func PlainText(page Page) string {
	lines := BuildLines(page.Elements)
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, "\n")
}

// JoinPages assembles per-page sections under [PAGE n] headers separated by
// a rule line. Pages that rendered nothing are omitted.
func JoinPages(pages []PageText) string {
	var sections []string
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("[PAGE %d]\n%s\n%s", p.Number, pageSeparator, p.Text))
	}
	return strings.Join(sections, "\n\n")
}
