// Package blocklist persists the set of client addresses that are denied
// access to every route.
package blocklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/flatblog/internal/db"
	"github.com/flatblog/internal/log"
)

const rawSnippetLimit = 100

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Set is a read-only view of blocked addresses. Membership is exact string
// match; no address normalization is applied.
type Set map[string]struct{}

// NewSet builds a set from a list of addresses.
func NewSet(addrs ...string) Set {
	set := make(Set, len(addrs))
	for _, addr := range addrs {
		set[addr] = struct{}{}
	}
	return set
}

// Contains reports whether addr is blocked.
func (s Set) Contains(addr string) bool {
	_, ok := s[addr]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for addr := range s {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Store reads and writes the blocklist file, a JSON array of strings.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path, logger: log.WithComponent("blocklist")}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load fails open: a missing file is created empty, and unreadable or
// malformed content yields an empty set after logging the failure.
func (s *Store) Load() Set {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if createErr := db.WriteFileAtomic(s.path, []byte("[]"), 0o644); createErr != nil {
				s.logger.Error().Err(createErr).Str("path", s.path).Msg("failed to create blocklist file")
			}
			return Set{}
		}
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to read blocklist file")
		return Set{}
	}

	set, err := decode(raw)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("path", s.path).
			Str("raw", snippet(raw)).
			Msg("blocklist unusable, treating as empty")
		return Set{}
	}
	return set
}

func decode(raw []byte) (Set, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return Set{}, nil
	}

	var entries []interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}

	// Non-string entries can never equal a resolved address.
	set := make(Set, len(entries))
	for _, entry := range entries {
		if addr, ok := entry.(string); ok {
			set[addr] = struct{}{}
		}
	}
	return set, nil
}

func snippet(raw []byte) string {
	if len(raw) > rawSnippetLimit {
		return string(raw[:rawSnippetLimit]) + "..."
	}
	return string(raw)
}

// Save overwrites the file with the sorted members of set.
func (s *Store) Save(set Set) error {
	data, err := json.MarshalIndent(set.Sorted(), "", "    ")
	if err != nil {
		return fmt.Errorf("encode blocklist: %w", err)
	}
	if err := db.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Add blocks addr. It reports false when addr was already present.
func (s *Store) Add(addr string) (bool, error) {
	set := s.Load()
	if set.Contains(addr) {
		return false, nil
	}
	set[addr] = struct{}{}
	return true, s.Save(set)
}

// Remove unblocks addr. It reports false when addr was not present.
func (s *Store) Remove(addr string) (bool, error) {
	set := s.Load()
	if !set.Contains(addr) {
		return false, nil
	}
	delete(set, addr)
	return true, s.Save(set)
}
