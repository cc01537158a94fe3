package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/flatblog/internal/db"
)

// PostListResult aggregates one listing page and the counters the pager needs.
type PostListResult struct {
	Posts      []db.Post
	Total      int
	TotalPages int
	Page       int
	PerPage    int
}

type rankedPost struct {
	post      db.Post
	createdAt time.Time
	position  int
}

// SortByTimestampDesc orders posts newest first. Posts created in the same
// second keep creation order reversed (later insertions first); unparsable
// timestamps rank as the zero time and sink to the end.
func SortByTimestampDesc(posts []db.Post, loc *time.Location) []db.Post {
	ranked := make([]rankedPost, len(posts))
	for i, post := range posts {
		createdAt, _ := post.CreatedAt(loc)
		ranked[i] = rankedPost{post: post, createdAt: createdAt, position: i}
	}

	slices.SortFunc(ranked, func(a, b rankedPost) int {
		if diff := b.createdAt.Compare(a.createdAt); diff != 0 {
			return diff
		}
		return cmp.Compare(b.position, a.position)
	})

	sorted := make([]db.Post, len(ranked))
	for i, r := range ranked {
		sorted[i] = r.post
	}
	return sorted
}

// ListPage sorts posts newest first and returns the 1-based page of perPage
// items alongside the total count. Pagination input is not validated:
// non-positive or out-of-range values produce an empty page.
func ListPage(posts []db.Post, page, perPage int, loc *time.Location) ([]db.Post, int) {
	total := len(posts)
	if page <= 0 || perPage <= 0 {
		return []db.Post{}, total
	}

	if page > pageCount(total, perPage) {
		return []db.Post{}, total
	}

	sorted := SortByTimestampDesc(posts, loc)
	start := (page - 1) * perPage
	end := min(start+perPage, total)
	return sorted[start:end], total
}

func pageCount(total, perPage int) int {
	pages := total / perPage
	if total%perPage != 0 {
		pages++
	}
	return pages
}

// totalPages mirrors the pager: an empty listing still has one page.
func totalPages(total, perPage int) int {
	if perPage <= 0 || total == 0 {
		return 1
	}
	return pageCount(total, perPage)
}
