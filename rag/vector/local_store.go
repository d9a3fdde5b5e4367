package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/timshannon/badgerhold/v4"

	"github.com/docentai/docent/rag"
)

// storedDocument is the on-disk record. Collection is indexed so scans stay
// bounded to one collection.
type storedDocument struct {
	ID         string
	Collection string `badgerholdIndex:"Collection"`
	Content    string
	Source     string
	FileType   string
	Title      string
	Page       int
	ChunkIndex int
	Vector     []float32
	Metadata   map[string]string
	CreatedAt  string
}

// LocalStore is a disk-persisted vector index backed by BadgerDB. Search is
// a brute-force cosine scan over the collection, which is plenty for the
// corpus sizes a single-user assistant ingests.
type LocalStore struct {
	store      *badgerhold.Store
	collection string
}

// LocalConfig configures the local store.
type LocalConfig struct {
	// Path is the directory the index lives in. Created if absent.
	Path string
	// Collection namespaces the documents.
	Collection string
}

// NewLocalStore opens (or creates) the index directory.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("index path is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}

	options := badgerhold.DefaultOptions
	options.Dir = cfg.Path
	options.ValueDir = cfg.Path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", cfg.Path, err)
	}

	return &LocalStore{
		store:      store,
		collection: cfg.Collection,
	}, nil
}

// Upsert writes documents and their vectors to the collection.
func (s *LocalStore) Upsert(ctx context.Context, docs []rag.Document) error {
	for _, doc := range docs {
		if len(doc.Vector) == 0 {
			return fmt.Errorf("document %q has no vector", doc.ID)
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.CreatedAt == "" {
			doc.CreatedAt = time.Now().Format(time.RFC3339)
		}

		record := storedDocument{
			ID:         doc.ID,
			Collection: s.collection,
			Content:    doc.Content,
			Source:     doc.Source,
			FileType:   doc.FileType,
			Title:      doc.Title,
			Page:       doc.Page,
			ChunkIndex: doc.ChunkIndex,
			Vector:     doc.Vector,
			Metadata:   doc.Metadata,
			CreatedAt:  doc.CreatedAt,
		}
		// Key includes the collection so identical chunk IDs in different
		// collections do not clobber each other.
		if err := s.store.Upsert(s.collection+":"+doc.ID, record); err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Search scans the collection and returns the topK nearest documents by
// cosine similarity, highest score first.
func (s *LocalStore) Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	topK = clampTopK(topK)

	var records []storedDocument
	if err := s.store.Find(&records, badgerhold.Where("Collection").Eq(s.collection)); err != nil {
		return nil, fmt.Errorf("failed to scan collection %s: %w", s.collection, err)
	}
	if len(records) == 0 {
		return []rag.SearchResult{}, nil
	}

	results := make([]rag.SearchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, rag.SearchResult{
			Document: rag.Document{
				ID:         rec.ID,
				Content:    rec.Content,
				Source:     rec.Source,
				FileType:   rec.FileType,
				Title:      rec.Title,
				Page:       rec.Page,
				ChunkIndex: rec.ChunkIndex,
				Metadata:   rec.Metadata,
				CreatedAt:  rec.CreatedAt,
			},
			Score: cosineSimilarity(vector, rec.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// DeleteCollection removes every document in the collection.
func (s *LocalStore) DeleteCollection(ctx context.Context) error {
	err := s.store.DeleteMatching(&storedDocument{}, badgerhold.Where("Collection").Eq(s.collection))
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
	}
	return nil
}

// Count returns the number of documents in the collection.
func (s *LocalStore) Count(ctx context.Context) (int64, error) {
	n, err := s.store.Count(&storedDocument{}, badgerhold.Where("Collection").Eq(s.collection))
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", s.collection, err)
	}
	return int64(n), nil
}

// Close compacts the value log and releases the underlying database.
// Re-ingests and resets leave stale versions behind, so each GC round
// that rewrites a log file is followed by another until nothing is left.
func (s *LocalStore) Close() error {
	if s.store == nil {
		return nil
	}
	for {
		err := s.store.Badger().RunValueLogGC(0.5)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				log.Warn().Err(err).Msg("value log GC failed")
			}
			break
		}
	}
	return s.store.Close()
}

// cosineSimilarity is the cosine of the angle between a and b, in [-1, 1].
func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
