package db

import "time"

// TimestampLayout is the on-disk format of Post.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Comment 定义了评论模型，仅通过在所属文章中的位置寻址。
type Comment struct {
	Author        string `json:"author"`
	Content       string `json:"content"`
	OriginAddress string `json:"ip_address"`
}

// Post 定义了文章模型
type Post struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Author        string    `json:"author"`
	Timestamp     string    `json:"timestamp"`
	Comments      []Comment `json:"comments"`
	OriginAddress string    `json:"ip_address"`
}

// FormatTimestamp renders t at second precision in loc.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Truncate(time.Second).Format(TimestampLayout)
}

// CreatedAt parses Timestamp in loc. ok is false for empty or malformed values.
func (p Post) CreatedAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, p.Timestamp, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a copy that shares no comment storage with p.
func (p Post) Clone() Post {
	clone := p
	clone.Comments = make([]Comment, len(p.Comments))
	copy(clone.Comments, p.Comments)
	return clone
}

// ClonePosts deep-copies a post collection.
func ClonePosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i := range posts {
		out[i] = posts[i].Clone()
	}
	return out
}
