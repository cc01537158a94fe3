package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/flatblog/internal/handler"
	"github.com/flatblog/internal/metrics"
	"github.com/flatblog/internal/view"
)

// SetupRouter 配置 Gin 引擎和路由。请求闸门先于会话与所有路由执行。
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	r.Use(api.RequestGate())

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("flatblog_session", store))

	r.SetHTMLTemplate(view.MustTemplates())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/", api.ShowHome)
	r.GET("/post/:id", api.ShowPost)
	r.POST("/post/:id/add_comment", api.AddComment)
	r.GET("/create_post", api.ShowCreatePost)
	r.POST("/create_post", api.CreatePost)

	r.NoRoute(api.NotFound)

	return r
}

// Handler wraps the engine with response compression for clients that
// accept gzip.
func Handler(engine *gin.Engine) http.Handler {
	return gzhttp.GzipHandler(engine)
}
