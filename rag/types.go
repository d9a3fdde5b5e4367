package rag

// Document represents a stored chunk with content and metadata for vector storage
type Document struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Source     string            `json:"source"`
	FileType   string            `json:"file_type"`
	Title      string            `json:"title"`
	Page       int               `json:"page,omitempty"`
	ChunkIndex int               `json:"chunk_index"`
	Vector     []float32         `json:"vector,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// SearchResult pairs a retrieved document with its similarity score.
// Higher scores mean closer matches.
type SearchResult struct {
	Document Document
	Score    float32
}
