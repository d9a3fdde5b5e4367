package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TxtParser handles plain text files
type TxtParser struct{}

// NewTxtParser creates a new plain text parser
func NewTxtParser() *TxtParser {
	return &TxtParser{}
}

// Parse reads and parses plain text from the reader
func (p *TxtParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}

	content := string(data)
	return &Document{
		Content:  content,
		Title:    ExtractTitle(content, ""),
		Metadata: textMetadata(content),
	}, nil
}

// ParseFile reads and parses a plain text file
func (p *TxtParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content := string(data)
	return &Document{
		Content:  content,
		Title:    ExtractTitle(content, filePath),
		Metadata: textMetadata(content),
	}, nil
}

// FileType returns the file type this parser handles
func (p *TxtParser) FileType() FileType {
	return FileTypeTXT
}

func textMetadata(content string) map[string]string {
	lines := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		lines++
	}
	return map[string]string{
		"file_size":  strconv.Itoa(len(content)),
		"line_count": strconv.Itoa(lines),
	}
}
