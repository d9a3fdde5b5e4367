// Package parser turns source files into plain text documents ready for
// chunking. Each supported file type registers a Parser; the Registry picks
// one by extension.
package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// FileType represents the type of document file
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeDocx    FileType = "docx"
	FileTypePPTX    FileType = "pptx"
	FileTypeMD      FileType = "md"
	FileTypeHTML    FileType = "html"
	FileTypeTXT     FileType = "txt"
	FileTypeUnknown FileType = "unknown"
)

// Document represents a parsed document with its content and metadata
type Document struct {
	Content  string
	Title    string
	Metadata map[string]string
}

// Parser defines the interface for document parsers
type Parser interface {
	// Parse reads and parses a document from the reader
	Parse(ctx context.Context, r io.Reader) (*Document, error)

	// ParseFile reads and parses a document from a file path
	ParseFile(ctx context.Context, filePath string) (*Document, error)

	// FileType returns the file type this parser handles
	FileType() FileType
}

// Registry holds all registered parsers
type Registry struct {
	parsers map[FileType]Parser
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[FileType]Parser),
	}
}

// Register adds a parser to the registry
func (r *Registry) Register(p Parser) {
	r.parsers[p.FileType()] = p
}

// GetParser returns a parser for the given file type
func (r *Registry) GetParser(ft FileType) (Parser, bool) {
	p, ok := r.parsers[ft]
	return p, ok
}

// GetParserForPath returns a parser for the given file path
func (r *Registry) GetParserForPath(filePath string) (Parser, bool) {
	ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
	return r.GetParser(FileTypeFromExt(ext))
}

// Supports reports whether a file path has a registered parser.
func (r *Registry) Supports(filePath string) bool {
	_, ok := r.GetParserForPath(filePath)
	return ok
}

// ParseFile parses a file using the appropriate parser
func (r *Registry) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	parser, ok := r.GetParserForPath(filePath)
	if !ok {
		return nil, fmt.Errorf("no parser found for file: %s", filePath)
	}
	return parser.ParseFile(ctx, filePath)
}

// FileTypeFromExt converts a file extension to FileType
func FileTypeFromExt(ext string) FileType {
	switch strings.ToLower(ext) {
	case "pdf":
		return FileTypePDF
	case "docx":
		return FileTypeDocx
	case "pptx":
		return FileTypePPTX
	case "md", "markdown":
		return FileTypeMD
	case "html", "htm":
		return FileTypeHTML
	case "txt":
		return FileTypeTXT
	default:
		return FileTypeUnknown
	}
}

// String returns the string representation of the FileType
func (ft FileType) String() string {
	return string(ft)
}

// DefaultRegistry returns a registry with every parser registered under its
// default configuration.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewTxtParser())
	reg.Register(NewMarkdownParser())
	reg.Register(NewHTMLParser())
	reg.Register(NewPDFParser())
	reg.Register(NewDocxParser())
	reg.Register(NewPPTXParser())
	return reg
}

// ExtractTitle extracts a title from content (first line or heading)
func ExtractTitle(content, filePath string) string {
	content = strings.TrimSpace(content)
	if content != "" {
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
			if line == "" {
				continue
			}
			if len(line) < 100 {
				return line
			}
			break
		}
	}
	if filePath == "" {
		return "Untitled"
	}
	return fileNameTitle(filePath)
}

// fileNameTitle strips the extension off a path's base name.
func fileNameTitle(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
