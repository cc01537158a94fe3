package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/flatblog/internal/audit"
	"github.com/flatblog/internal/blocklist"
	"github.com/flatblog/internal/config"
	"github.com/flatblog/internal/db"
	"github.com/flatblog/internal/handler"
	"github.com/flatblog/internal/log"
	"github.com/flatblog/internal/router"
	"github.com/flatblog/internal/server"
	"github.com/flatblog/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Init(log.Config{
		Level:      log.ParseLevel(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// 初始化各个文件存储
	posts := service.NewPostService(db.NewFileStore(cfg.DataPath), loc)
	blocks := blocklist.NewCache(blocklist.NewStore(cfg.BlocklistPath), blocklist.DefaultMaxAge)
	recorder := audit.NewWriter(cfg.AuditLogPath, loc)

	log.Logger.Info().
		Str("data", cfg.DataPath).
		Str("blocklist", cfg.BlocklistPath).
		Str("audit", cfg.AuditLogPath).
		Int("posts", posts.Count()).
		Bool("trust_forwarded_for", cfg.TrustForwardedFor).
		Msg("content loaded")

	gin.SetMode(ginMode(cfg.GinMode))

	api := handler.NewAPI(posts, recorder, blocks, handler.Options{
		TrustForwardedFor: cfg.TrustForwardedFor,
	})
	engine := router.SetupRouter(api, cfg.SessionSecret)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.ListenAddr, router.Handler(engine)).ListenAndServe(ctx)
}

// ginMode 只接受 gin 认识的模式，其余一律回退到 release。
func ginMode(raw string) string {
	switch raw {
	case gin.DebugMode, gin.TestMode:
		return raw
	default:
		return gin.ReleaseMode
	}
}
