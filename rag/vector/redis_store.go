package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/docentai/docent/rag"
)

const (
	defaultEFConstruction = 200
	defaultM              = 16

	fieldContent    = "content"
	fieldVector     = "vector"
	fieldSource     = "source"
	fieldFileType   = "file_type"
	fieldTitle      = "title"
	fieldPage       = "page"
	fieldChunkIndex = "chunk_index"
	fieldCreatedAt  = "created_at"
	fieldMetadata   = "metadata"
	fieldScore      = "score"
)

// RedisStore implements Store on Redis with a RediSearch HNSW index. One
// store instance serves one collection: the collection name is baked into
// both the index name and the key prefix.
type RedisStore struct {
	client     *redis.Client
	collection string
	indexName  string
	keyPrefix  string

	mu           sync.Mutex
	indexCreated bool
	dim          int

	efConstruction int
	m              int
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	Collection string

	// VectorDim sizes the HNSW index. Zero defers to the first upserted
	// vector.
	VectorDim      int
	EFConstruction int
	M              int
}

// NewRedisStore connects to Redis and prepares a store for the collection.
// The index itself is created on first upsert, once the dimension is known.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.EFConstruction <= 0 {
		cfg.EFConstruction = defaultEFConstruction
	}
	if cfg.M <= 0 {
		cfg.M = defaultM
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		// FT.* replies are parsed below as flat RESP2 arrays.
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, rag.WrapServiceError("vector store", err)
	}

	return &RedisStore{
		client:         client,
		collection:     cfg.Collection,
		indexName:      "docent-" + cfg.Collection,
		keyPrefix:      "docent:" + cfg.Collection + ":",
		dim:            cfg.VectorDim,
		efConstruction: cfg.EFConstruction,
		m:              cfg.M,
	}, nil
}

// ensureIndex creates the HNSW index if it does not exist yet.
func (s *RedisStore) ensureIndex(ctx context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexCreated {
		return nil
	}
	if s.dim == 0 {
		s.dim = dim
	}
	if s.dim == 0 {
		return fmt.Errorf("embedding dimension unknown")
	}

	if _, err := s.client.Do(ctx, "FT.INFO", s.indexName).Result(); err == nil {
		s.indexCreated = true
		return nil
	}

	_, err := s.client.Do(ctx, "FT.CREATE", s.indexName,
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(s.efConstruction),
		"M", strconv.Itoa(s.m),
		fieldContent, "TEXT",
		fieldSource, "TAG",
		fieldFileType, "TAG",
		fieldTitle, "TEXT",
		fieldPage, "NUMERIC",
		fieldChunkIndex, "NUMERIC",
		fieldCreatedAt, "NUMERIC",
	).Result()
	if err != nil {
		return rag.WrapServiceError("vector store", err)
	}

	s.indexCreated = true
	return nil
}

// Upsert writes documents and their vectors to the collection.
func (s *RedisStore) Upsert(ctx context.Context, docs []rag.Document) error {
	if len(docs) == 0 {
		return nil
	}
	for _, doc := range docs {
		if len(doc.Vector) == 0 {
			return fmt.Errorf("document %q has no vector", doc.ID)
		}
	}

	if err := s.ensureIndex(ctx, len(docs[0].Vector)); err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	now := time.Now().Unix()
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}

		metadataJSON, _ := json.Marshal(doc.Metadata)

		pipe.HSet(ctx, s.keyPrefix+doc.ID,
			fieldContent, doc.Content,
			fieldVector, encodeVector(doc.Vector),
			fieldSource, doc.Source,
			fieldFileType, doc.FileType,
			fieldTitle, doc.Title,
			fieldPage, doc.Page,
			fieldChunkIndex, doc.ChunkIndex,
			fieldCreatedAt, now,
			fieldMetadata, metadataJSON,
		)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return rag.WrapServiceError("vector store", err)
	}
	return nil
}

// Search runs a KNN query against the index and returns the topK closest
// documents. Scores are cosine similarity, so higher is closer.
func (s *RedisStore) Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	topK = clampTopK(topK)

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $query_vector AS %s]", topK, fieldVector, fieldScore)

	result, err := s.client.Do(ctx, "FT.SEARCH", s.indexName, queryStr,
		"PARAMS", "2", "query_vector", encodeVector(vector),
		"RETURN", "8", fieldContent, fieldSource, fieldFileType, fieldTitle, fieldPage, fieldChunkIndex, fieldMetadata, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return []rag.SearchResult{}, nil
		}
		return nil, rag.WrapServiceError("vector store", err)
	}

	return s.parseSearchResults(result)
}

// parseSearchResults walks the flat FT.SEARCH reply: a count followed by
// alternating key and field-list entries.
func (s *RedisStore) parseSearchResults(result interface{}) ([]rag.SearchResult, error) {
	values, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search reply type %T", result)
	}
	if len(values) <= 1 {
		return []rag.SearchResult{}, nil
	}

	var results []rag.SearchResult
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		doc, score := s.parseDocumentFields(strings.TrimPrefix(key, s.keyPrefix), fields)
		results = append(results, rag.SearchResult{Document: doc, Score: score})
	}
	return results, nil
}

// parseDocumentFields decodes one document's field list. The KNN clause
// reports cosine distance; flip it to a similarity so higher means closer.
func (s *RedisStore) parseDocumentFields(id string, fields []interface{}) (rag.Document, float32) {
	doc := rag.Document{
		ID:       id,
		Metadata: make(map[string]string),
	}
	var score float32

	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := redisString(fields[i+1])

		switch name {
		case fieldContent:
			doc.Content = value
		case fieldSource:
			doc.Source = value
		case fieldFileType:
			doc.FileType = value
		case fieldTitle:
			doc.Title = value
		case fieldPage:
			if n, err := strconv.Atoi(value); err == nil {
				doc.Page = n
			}
		case fieldChunkIndex:
			if n, err := strconv.Atoi(value); err == nil {
				doc.ChunkIndex = n
			}
		case fieldMetadata:
			json.Unmarshal([]byte(value), &doc.Metadata)
		case fieldScore:
			if dist, err := strconv.ParseFloat(value, 32); err == nil {
				score = 1 - float32(dist)
			}
		}
	}
	return doc, score
}

// DeleteCollection drops the index together with its documents.
func (s *RedisStore) DeleteCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.client.Do(ctx, "FT.DROPINDEX", s.indexName, "DD").Result()
	if err != nil && !isUnknownIndex(err) {
		return rag.WrapServiceError("vector store", err)
	}
	s.indexCreated = false
	return nil
}

// Count reads num_docs off FT.INFO. A missing index counts as empty.
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.client.Do(ctx, "FT.INFO", s.indexName).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return 0, nil
		}
		return 0, rag.WrapServiceError("vector store", err)
	}

	values, ok := info.([]interface{})
	if !ok {
		return 0, fmt.Errorf("unexpected info reply type %T", info)
	}
	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			switch v := values[i+1].(type) {
			case int64:
				return v, nil
			case string:
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					return n, nil
				}
			}
		}
	}
	return 0, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// encodeVector packs float32s little-endian, the blob format RediSearch
// expects for FLOAT32 vector fields.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func redisString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func isUnknownIndex(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}
