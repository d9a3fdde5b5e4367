// Package layout turns a page's positioned text elements into ordered,
// annotated blocks: elements are grouped into lines by vertical proximity,
// every line is classified into a 3x3 position grid and checked for heading
// likelihood against the page's median font size. All classification is
// per-page; no state crosses page boundaries.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/phuslu/log"
)

// TextElement is one positioned glyph run from a page. Coordinates follow
// PDF conventions: origin at the bottom-left corner, y grows upward.
type TextElement struct {
	Text     string
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
	FontSize float64
	Bold     bool
	Italic   bool
	Page     int
}

// lineHeight returns the vertical extent used for the grouping tolerance.
func (e TextElement) lineHeight() float64 {
	if h := e.Y1 - e.Y0; h > 0 {
		return h
	}
	if e.FontSize > 0 {
		return e.FontSize
	}
	return 1
}

// TextLine is an ordered run of elements sharing a baseline, with the merged
// bounding box and the dominant font attributes.
type TextLine struct {
	Elements []TextElement
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
	FontSize float64 // average across elements
	Bold     bool    // set only when every element is bold
	Italic   bool    // set only when every element is italic
}

// wordGapScale is the fraction of the font size a horizontal gap must exceed
// before two adjacent elements are treated as separate words.
const wordGapScale = 0.2

// Text joins the line's elements left to right, inserting spaces at word
// gaps. Elements that already carry whitespace are joined as-is.
func (l TextLine) Text() string {
	var sb strings.Builder
	for i, el := range l.Elements {
		if i > 0 {
			gap := el.X0 - l.Elements[i-1].X1
			if gap > wordGapScale*el.FontSize &&
				!strings.HasSuffix(l.Elements[i-1].Text, " ") &&
				!strings.HasPrefix(el.Text, " ") {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(el.Text)
	}
	return strings.TrimSpace(sb.String())
}

func (l TextLine) centerY() float64 {
	return (l.Y0 + l.Y1) / 2
}

func (l TextLine) centerX() float64 {
	return (l.X0 + l.X1) / 2
}

// validBBox reports whether an element's bounding box is well formed.
func validBBox(e TextElement) bool {
	for _, v := range [4]float64{e.X0, e.Y0, e.X1, e.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return e.X1 >= e.X0 && e.Y1 >= e.Y0
}

type lineBuilder struct {
	elements []TextElement
	sum      float64 // running sum of element vertical midpoints
}

func (b *lineBuilder) center() float64 {
	return b.sum / float64(len(b.elements))
}

func (b *lineBuilder) add(e TextElement) {
	b.elements = append(b.elements, e)
	b.sum += (e.Y0 + e.Y1) / 2
}

// BuildLines groups a page's elements into lines. An element joins the line
// whose running vertical center lies within half the element's line height;
// otherwise it opens a new line. Lines come back ordered top to bottom, and
// lines whose centers coincide are ordered by left edge, then by the order
// their first element appeared in the input. Elements with malformed
// bounding boxes are skipped with a warning; empty text is ignored silently.
func BuildLines(elements []TextElement) []TextLine {
	var builders []*lineBuilder

	for _, el := range elements {
		if strings.TrimSpace(el.Text) == "" {
			continue
		}
		if !validBBox(el) {
			log.Warn().
				Str("text", clip(el.Text, 40)).
				Int("page", el.Page).
				Msg("skipping element with malformed bounding box")
			continue
		}

		mid := (el.Y0 + el.Y1) / 2
		tol := el.lineHeight() / 2

		var best *lineBuilder
		bestDist := math.MaxFloat64
		for _, b := range builders {
			if d := math.Abs(b.center() - mid); d <= tol && d < bestDist {
				best, bestDist = b, d
			}
		}

		if best != nil {
			best.add(el)
		} else {
			b := &lineBuilder{}
			b.add(el)
			builders = append(builders, b)
		}
	}

	lines := make([]TextLine, 0, len(builders))
	for _, b := range builders {
		lines = append(lines, finalizeLine(b.elements))
	}

	sort.SliceStable(lines, func(i, j int) bool {
		ci, cj := lines[i].centerY(), lines[j].centerY()
		if ci != cj {
			return ci > cj
		}
		return lines[i].X0 < lines[j].X0
	})

	return lines
}

// finalizeLine orders the elements left to right and derives the merged
// bounding box and dominant font attributes.
func finalizeLine(elements []TextElement) TextLine {
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].X0 < elements[j].X0
	})

	line := TextLine{
		Elements: elements,
		X0:       math.Inf(1),
		Y0:       math.Inf(1),
		X1:       math.Inf(-1),
		Y1:       math.Inf(-1),
		Bold:     true,
		Italic:   true,
	}

	var sizeSum float64
	for _, el := range elements {
		line.X0 = math.Min(line.X0, el.X0)
		line.Y0 = math.Min(line.Y0, el.Y0)
		line.X1 = math.Max(line.X1, el.X1)
		line.Y1 = math.Max(line.Y1, el.Y1)
		sizeSum += el.FontSize
		line.Bold = line.Bold && el.Bold
		line.Italic = line.Italic && el.Italic
	}
	line.FontSize = sizeSum / float64(len(elements))

	return line
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// medianFontSize returns the median of the lines' font sizes; the mean of
// the two central values when the count is even.
func medianFontSize(lines []TextLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	sizes := make([]float64, len(lines))
	for i, l := range lines {
		sizes[i] = l.FontSize
	}
	sort.Float64s(sizes)

	mid := len(sizes) / 2
	if len(sizes)%2 == 1 {
		return sizes[mid]
	}
	return (sizes[mid-1] + sizes[mid]) / 2
}
