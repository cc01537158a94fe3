package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/flatblog/internal/audit"
	"github.com/flatblog/internal/blocklist"
	"github.com/flatblog/internal/log"
	"github.com/flatblog/internal/service"
)

const defaultSiteName = "flatblog"

// Options tunes handler behavior that comes from configuration.
type Options struct {
	SiteName string
	// TrustForwardedFor makes the gate attribute requests to the first
	// X-Forwarded-For entry. The header is client-controlled, so anyone can
	// claim any address unless a trusted proxy overwrites it.
	TrustForwardedFor bool
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts    *service.PostService
	audit    audit.Recorder
	blocks   *blocklist.Cache
	siteName string
	trustFwd bool
	logger   zerolog.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(posts *service.PostService, recorder audit.Recorder, blocks *blocklist.Cache, opts Options) *API {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	siteName := opts.SiteName
	if siteName == "" {
		siteName = defaultSiteName
	}
	return &API{
		posts:    posts,
		audit:    recorder,
		blocks:   blocks,
		siteName: siteName,
		trustFwd: opts.TrustForwardedFor,
		logger:   log.WithComponent("gate"),
	}
}

// Posts exposes the content store for callers outside the HTTP layer.
func (a *API) Posts() *service.PostService {
	return a.posts
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().Year()
	}

	c.HTML(status, template, payload)
}
