package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatblog/internal/audit"
	"github.com/flatblog/internal/blocklist"
	"github.com/flatblog/internal/db"
	"github.com/flatblog/internal/handler"
	"github.com/flatblog/internal/router"
	"github.com/flatblog/internal/service"
)

var ginOnce sync.Once

type publicEnv struct {
	handler   http.Handler
	posts     *service.PostService
	content   *db.FileStore
	blocks    *blocklist.Store
	auditPath string
}

func setupPublicTest(t *testing.T, seed ...db.Post) *publicEnv {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	dir := t.TempDir()
	content := db.NewFileStore(filepath.Join(dir, "data.json"))
	if len(seed) > 0 {
		require.NoError(t, content.Save(seed))
	}
	return newPublicEnv(t, dir, content)
}

func newPublicEnv(t *testing.T, dir string, content *db.FileStore) *publicEnv {
	t.Helper()

	blocks := blocklist.NewStore(filepath.Join(dir, "blocked_ips.json"))
	auditPath := filepath.Join(dir, "audit_log.txt")

	posts := service.NewPostService(content, time.UTC)
	api := handler.NewAPI(posts, audit.NewWriter(auditPath, time.UTC), blocklist.NewCache(blocks, 0), handler.Options{
		TrustForwardedFor: true,
	})

	return &publicEnv{
		handler:   router.SetupRouter(api, "test-secret"),
		posts:     posts,
		content:   content,
		blocks:    blocks,
		auditPath: auditPath,
	}
}

func (e *publicEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *publicEnv) auditLines(t *testing.T) []string {
	t.Helper()
	raw, err := os.ReadFile(e.auditPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	trimmed := strings.TrimSuffix(string(raw), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func threePosts() []db.Post {
	return []db.Post{
		{ID: 1, Title: "Oldest entry", Author: "ana", Content: "one", Timestamp: "2024-01-01 08:00:00", Comments: []db.Comment{}},
		{ID: 2, Title: "Middle entry", Author: "ana", Content: "two", Timestamp: "2024-01-02 08:00:00", Comments: []db.Comment{}},
		{ID: 3, Title: "Newest entry", Author: "bo", Content: "three", Timestamp: "2024-01-03 08:00:00", Comments: []db.Comment{}},
	}
}

func TestShowHomePaginatesNewestFirst(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)

	w := env.do(httptest.NewRequest(http.MethodGet, "/?page=1&per_page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Newest entry")
	assert.Contains(t, body, "Middle entry")
	assert.NotContains(t, body, "Oldest entry")
	assert.Contains(t, body, "3 posts")
	assert.Less(t, strings.Index(body, "Newest entry"), strings.Index(body, "Middle entry"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/?page=2&per_page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, "Oldest entry")
	assert.NotContains(t, body, "Newest entry")
}

func TestShowHomeDefaultsAndDegenerateInput(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)

	w := env.do(httptest.NewRequest(http.MethodGet, "/?page=abc&per_page=", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Oldest entry")

	w = env.do(httptest.NewRequest(http.MethodGet, "/?page=0", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "entry</a>")
	assert.Contains(t, w.Body.String(), "No posts yet.")
}

func TestShowHomeRecordsAudit(t *testing.T) {
	env := setupPublicTest(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.10, 10.0.0.1")
	require.Equal(t, http.StatusOK, env.do(req).Code)

	lines := env.auditLines(t)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Address: 198.51.100.10 - Action: Accessed homepage - Time: "))
}

func TestShowPostRendersMarkdown(t *testing.T) {
	seed := threePosts()
	seed[0].Content = "# Heading\n\n```go\nfmt.Println(\"hi\")\n```\n\n<script>alert(1)</script>"
	seed[0].Comments = []db.Comment{{Author: "cy", Content: "<b>raw</b>", OriginAddress: "10.0.0.3"}}
	env := setupPublicTest(t, seed...)

	w := env.do(httptest.NewRequest(http.MethodGet, "/post/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<h1>Heading</h1>")
	assert.Contains(t, body, `<code class="language-go">`)
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;b&gt;raw&lt;/b&gt;")

	lines := env.auditLines(t)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Action: Accessed post 1 - ")
}

func TestShowPostNotFound(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)

	for _, path := range []string{"/post/99", "/post/0", "/post/abc", "/post/-1"} {
		w := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.Empty(t, env.auditLines(t))
}

func TestCreatePostRedirectsAndPersists(t *testing.T) {
	env := setupPublicTest(t)

	req := formRequest("/create_post", url.Values{
		"title":   {"Hello"},
		"author":  {"ana"},
		"content": {"**bold**"},
	})
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	w := env.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	posts := env.content.Load()
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].ID)
	assert.Equal(t, "Hello", posts[0].Title)
	assert.Equal(t, "ana", posts[0].Author)
	assert.Equal(t, "**bold**", posts[0].Content)
	assert.Equal(t, "203.0.113.5", posts[0].OriginAddress)
	_, ok := posts[0].CreatedAt(time.UTC)
	assert.True(t, ok)

	lines := env.auditLines(t)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Address: 203.0.113.5 - Action: Created a new post - Time: "))
}

func TestCreatePostRemembersAuthor(t *testing.T) {
	env := setupPublicTest(t)

	w := env.do(formRequest("/create_post", url.Values{"title": {"t"}, "author": {"remembered-name"}, "content": {"c"}}))
	require.Equal(t, http.StatusFound, w.Code)

	form := httptest.NewRequest(http.MethodGet, "/create_post", nil)
	for _, cookie := range w.Result().Cookies() {
		form.AddCookie(cookie)
	}
	w = env.do(form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="remembered-name"`)
}

func TestCreatePostStorageFailure(t *testing.T) {
	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	env := newPublicEnv(t, dir, db.NewFileStore(filepath.Join(blocker, "data.json")))

	w := env.do(formRequest("/create_post", url.Values{"title": {"t"}, "author": {"a"}, "content": {"c"}}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, env.posts.Count())
	assert.Empty(t, env.auditLines(t))
}

func TestAddCommentAppendsAndRedirects(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)

	req := formRequest("/post/2/add_comment", url.Values{
		"comment_author":  {"bo"},
		"comment_content": {"great read"},
	})
	w := env.do(req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/2", w.Header().Get("Location"))

	posts := env.content.Load()
	require.Len(t, posts, 3)
	assert.Empty(t, posts[0].Comments)
	assert.Empty(t, posts[2].Comments)
	require.Len(t, posts[1].Comments, 1)
	assert.Equal(t, db.Comment{Author: "bo", Content: "great read", OriginAddress: "192.0.2.1"}, posts[1].Comments[0])

	lines := env.auditLines(t)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Action: Added a comment to post 2 - ")
}

func TestAddCommentUnknownPostStillRedirects(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)

	before, err := os.ReadFile(env.content.Path())
	require.NoError(t, err)

	w := env.do(formRequest("/post/5/add_comment", url.Values{
		"comment_author":  {"ghost"},
		"comment_content": {"anyone?"},
	}))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/5", w.Header().Get("Location"))

	after, err := os.ReadFile(env.content.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, env.auditLines(t))
}

func TestGateBlocksAndUnblocksWithoutRestart(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "198.51.100.77:40000"
		return r
	}

	require.Equal(t, http.StatusOK, env.do(req()).Code)

	_, err := env.blocks.Add("198.51.100.77")
	require.NoError(t, err)

	w := env.do(req())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")
	assert.Len(t, env.auditLines(t), 1, "denied requests must not be audited")

	_, err = env.blocks.Remove("198.51.100.77")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, env.do(req()).Code)
	assert.Len(t, env.auditLines(t), 2)
}

func TestGateShortCircuitsEveryRoute(t *testing.T) {
	env := setupPublicTest(t, threePosts()...)
	require.NoError(t, env.blocks.Save(blocklist.NewSet("203.0.113.66")))

	before, err := os.ReadFile(env.content.Path())
	require.NoError(t, err)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/post/1", nil),
		httptest.NewRequest(http.MethodGet, "/create_post", nil),
		httptest.NewRequest(http.MethodGet, "/does-not-exist", nil),
		httptest.NewRequest(http.MethodGet, "/ping", nil),
		formRequest("/create_post", url.Values{"title": {"x"}}),
		formRequest("/post/1/add_comment", url.Values{"comment_author": {"x"}}),
	}
	for _, req := range requests {
		req.Header.Set("X-Forwarded-For", "203.0.113.66, 10.0.0.1")
		w := env.do(req)
		assert.Equal(t, http.StatusForbidden, w.Code, req.Method+" "+req.URL.Path)
	}

	after, err := os.ReadFile(env.content.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, env.auditLines(t))
}

func TestGateCreatesMissingBlocklistFile(t *testing.T) {
	env := setupPublicTest(t)

	require.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)

	raw, err := os.ReadFile(env.blocks.Path())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestGateSetsRequestID(t *testing.T) {
	env := setupPublicTest(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}
