package handler

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const authorSessionKey = "author"

// rememberAuthor stores the last name used on a form so the next form can
// be prefilled. It is a convenience only; nothing trusts this value.
func rememberAuthor(c *gin.Context, author string) {
	author = strings.TrimSpace(author)
	if author == "" {
		return
	}
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return
	}
	session := sessions.Default(c)
	session.Set(authorSessionKey, author)
	if err := session.Save(); err != nil {
		c.Error(err) // 不中断请求
	}
}

func rememberedAuthor(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	if author, ok := sessions.Default(c).Get(authorSessionKey).(string); ok {
		return author
	}
	return ""
}
