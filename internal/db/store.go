package db

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/flatblog/internal/log"
)

//go:embed schema/content.schema.json
var contentSchemaJSON []byte

const contentSchemaURL = "content.schema.json"

var (
	contentSchemaOnce sync.Once
	contentSchema     *jsonschema.Schema
	contentSchemaErr  error
)

func compiledContentSchema() (*jsonschema.Schema, error) {
	contentSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7
		if err := compiler.AddResource(contentSchemaURL, bytes.NewReader(contentSchemaJSON)); err != nil {
			contentSchemaErr = err
			return
		}
		contentSchema, contentSchemaErr = compiler.Compile(contentSchemaURL)
	})
	return contentSchema, contentSchemaErr
}

type document struct {
	Posts []Post `json:"posts"`
}

// FileStore reads and writes the whole post collection as one JSON document.
// It holds no state besides the path; callers serialize access.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, logger: log.WithComponent("content")}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the persisted posts. A missing, unparsable or wrongly shaped
// file yields an empty collection; the cause is logged, never returned.
func (s *FileStore) Load() []Post {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info().Str("path", s.path).Msg("content file not found, starting empty")
		} else {
			s.logger.Error().Err(err).Str("path", s.path).Msg("failed to read content file")
		}
		return []Post{}
	}

	posts, err := decodeDocument(raw)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("content file unusable, starting empty")
		return []Post{}
	}

	s.logger.Debug().Str("path", s.path).Int("posts", len(posts)).Msg("content loaded")
	return posts
}

func decodeDocument(raw []byte) ([]Post, error) {
	var generic interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	schema, err := compiledContentSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("unexpected shape: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	for i := range doc.Posts {
		if doc.Posts[i].Comments == nil {
			doc.Posts[i].Comments = []Comment{}
		}
	}
	return doc.Posts, nil
}

// Save overwrites the backing file with the full collection.
func (s *FileStore) Save(posts []Post) error {
	doc := document{Posts: make([]Post, len(posts))}
	for i, post := range posts {
		if post.Comments == nil {
			post.Comments = []Comment{}
		}
		doc.Posts[i] = post
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	data = append(data, '\n')

	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
