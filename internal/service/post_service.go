package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/flatblog/internal/db"
	"github.com/flatblog/internal/log"
	"github.com/flatblog/internal/metrics"
)

var ErrPostNotFound = errors.New("post not found")

// Persister is the durable side of the content store.
type Persister interface {
	Load() []db.Post
	Save(posts []db.Post) error
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title         string
	Author        string
	Content       string
	OriginAddress string
}

// CommentInput represents fields accepted when appending a comment.
type CommentInput struct {
	Author        string
	Content       string
	OriginAddress string
}

// PostService owns the in-memory post collection. Mutations are serialized
// and the whole collection is rewritten after each one; memory only changes
// once the rewrite succeeded.
type PostService struct {
	store  Persister
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger

	mu    sync.RWMutex
	posts []db.Post
}

// NewPostService loads the collection from store once. Timestamps are
// written and parsed in loc.
func NewPostService(store Persister, loc *time.Location) *PostService {
	if loc == nil {
		loc = time.Local
	}
	s := &PostService{
		store:  store,
		loc:    loc,
		now:    time.Now,
		logger: log.WithComponent("posts"),
		posts:  store.Load(),
	}
	metrics.PostsTotal.Set(float64(len(s.posts)))
	s.logger.Info().Int("posts", len(s.posts)).Msg("content store ready")
	return s
}

// Location returns the zone used for post timestamps.
func (s *PostService) Location() *time.Location {
	return s.loc
}

// Count returns the number of posts.
func (s *PostService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Snapshot returns a deep copy of the collection in insertion order.
func (s *PostService) Snapshot() []db.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return db.ClonePosts(s.posts)
}

// Get fetches a post by id. The result is a copy.
func (s *PostService) Get(id int) (*db.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrPostNotFound
	}
	post := s.posts[idx].Clone()
	return &post, nil
}

// Create assigns the next id (count + 1), stamps the post with the current
// time and persists the collection.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := db.Post{
		ID:            len(s.posts) + 1,
		Title:         input.Title,
		Author:        input.Author,
		Content:       input.Content,
		Timestamp:     db.FormatTimestamp(s.now(), s.loc),
		Comments:      []db.Comment{},
		OriginAddress: input.OriginAddress,
	}

	next := make([]db.Post, len(s.posts), len(s.posts)+1)
	copy(next, s.posts)
	next = append(next, post)

	if err := s.persist(next, "create_post"); err != nil {
		return nil, err
	}
	s.posts = next
	metrics.PostsTotal.Set(float64(len(next)))

	s.logger.Debug().Int("id", post.ID).Str("author", post.Author).Msg("post created")
	created := post.Clone()
	return &created, nil
}

// AddComment appends a comment to the post with postID. Unknown ids return
// ErrPostNotFound without touching storage.
func (s *PostService) AddComment(postID int, input CommentInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(postID)
	if idx < 0 {
		return ErrPostNotFound
	}

	// Comment slices are never appended in place, so sharing the other
	// posts with the current collection is safe.
	next := make([]db.Post, len(s.posts))
	copy(next, s.posts)
	updated := s.posts[idx].Clone()
	updated.Comments = append(updated.Comments, db.Comment{
		Author:        input.Author,
		Content:       input.Content,
		OriginAddress: input.OriginAddress,
	})
	next[idx] = updated

	if err := s.persist(next, "add_comment"); err != nil {
		return err
	}
	s.posts = next

	s.logger.Debug().Int("post_id", postID).Int("comments", len(updated.Comments)).Msg("comment added")
	return nil
}

// List returns one page of posts, newest first.
func (s *PostService) List(page, perPage int) *PostListResult {
	s.mu.RLock()
	items, total := ListPage(s.posts, page, perPage, s.loc)
	s.mu.RUnlock()

	return &PostListResult{
		Posts:      db.ClonePosts(items),
		Total:      total,
		TotalPages: totalPages(total, perPage),
		Page:       page,
		PerPage:    perPage,
	}
}

// linear scan; the collection is small and ids may have been hand-edited.
func (s *PostService) indexOf(id int) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *PostService) persist(posts []db.Post, kind string) error {
	timer := prometheus.NewTimer(metrics.ContentSaveDuration)
	err := s.store.Save(posts)
	timer.ObserveDuration()

	if err != nil {
		metrics.ContentMutations.WithLabelValues(kind, "error").Inc()
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to persist content")
		return fmt.Errorf("persist posts: %w", err)
	}
	metrics.ContentMutations.WithLabelValues(kind, "ok").Inc()
	return nil
}
