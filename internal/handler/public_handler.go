package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flatblog/internal/service"
)

const (
	defaultPage    = 1
	defaultPerPage = 10
)

// ShowHome renders the newest-first post listing.
func (a *API) ShowHome(c *gin.Context) {
	a.audit.Record(a.clientAddress(c), "Accessed homepage")

	page := parseIntQuery(c, "page", defaultPage)
	perPage := parseIntQuery(c, "per_page", defaultPerPage)

	result := a.posts.List(page, perPage)

	a.renderHTML(c, http.StatusOK, "index.html", gin.H{
		"title":        "Home",
		"posts":        result.Posts,
		"current_page": page,
		"per_page":     perPage,
		"total_posts":  result.Total,
		"total_pages":  result.TotalPages,
	})
}

// ShowPost renders a single post with its Markdown converted to HTML.
func (a *API) ShowPost(c *gin.Context) {
	id, err := parseIntParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	post, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.renderNotFound(c)
			return
		}
		a.renderError(c, http.StatusInternalServerError, "Failed to load post", err)
		return
	}

	htmlContent, err := renderMarkdown(post.Content)
	if err != nil {
		a.renderError(c, http.StatusInternalServerError, "Failed to render post", err)
		return
	}

	a.audit.Record(a.clientAddress(c), fmt.Sprintf("Accessed post %d", id))

	a.renderHTML(c, http.StatusOK, "post.html", gin.H{
		"title":   post.Title,
		"post":    post,
		"content": htmlContent,
		"author":  rememberedAuthor(c),
	})
}

// ShowCreatePost renders the new post form.
func (a *API) ShowCreatePost(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "create_post.html", gin.H{
		"title":  "New post",
		"author": rememberedAuthor(c),
	})
}

// CreatePost stores a new post and returns to the listing.
func (a *API) CreatePost(c *gin.Context) {
	address := a.clientAddress(c)
	input := service.PostInput{
		Title:         c.PostForm("title"),
		Author:        c.PostForm("author"),
		Content:       c.PostForm("content"),
		OriginAddress: address,
	}

	if _, err := a.posts.Create(input); err != nil {
		a.renderError(c, http.StatusInternalServerError, "Failed to save post", err)
		return
	}

	a.audit.Record(address, "Created a new post")
	rememberAuthor(c, input.Author)
	c.Redirect(http.StatusFound, "/")
}

// AddComment appends a comment and returns to the post page. Unknown post
// ids still redirect; nothing is stored or audited for them.
func (a *API) AddComment(c *gin.Context) {
	id, err := parseIntParam(c, "id")
	if err != nil {
		a.renderNotFound(c)
		return
	}

	address := a.clientAddress(c)
	input := service.CommentInput{
		Author:        c.PostForm("comment_author"),
		Content:       c.PostForm("comment_content"),
		OriginAddress: address,
	}

	target := "/post/" + strconv.Itoa(id)

	if err := a.posts.AddComment(id, input); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			c.Redirect(http.StatusFound, target)
			return
		}
		a.renderError(c, http.StatusInternalServerError, "Failed to save comment", err)
		return
	}

	a.audit.Record(address, fmt.Sprintf("Added a comment to post %d", id))
	rememberAuthor(c, input.Author)
	c.Redirect(http.StatusFound, target)
}

// NotFound handles unmatched routes.
func (a *API) NotFound(c *gin.Context) {
	a.renderNotFound(c)
}

func (a *API) renderNotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{"title": "Not found"})
}

func (a *API) renderError(c *gin.Context, status int, message string, err error) {
	c.Error(err)
	a.renderHTML(c, status, "error.html", gin.H{
		"title": "Error",
		"error": message,
	})
}
