package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flatblog/internal/config"
	"github.com/flatblog/internal/db"
	"github.com/flatblog/internal/service"
)

const seedAddress = "127.0.0.1"

var samplePosts = []service.PostInput{
	{
		Title:   "Hello, flatblog",
		Author:  "admin",
		Content: "Welcome! Posts are written in **Markdown** and stored in a plain JSON file.\n\n- edit nothing by hand\n- back up `data.json` to keep everything",
	},
	{
		Title:  "使用Go语言构建高性能Web服务",
		Author: "admin",
		Content: "Go语言因其出色的并发性能和简洁的语法，成为构建Web服务的理想选择。\n\n" +
			"```go\nr := gin.Default()\nr.GET(\"/ping\", func(c *gin.Context) { c.String(200, \"pong\") })\n```",
	},
	{
		Title:   "Gin框架中间件开发实战",
		Author:  "testuser",
		Content: "中间件按注册顺序执行，`c.Abort()` 会跳过后续所有处理器。",
	},
}

var sampleComments = []service.CommentInput{
	{Author: "testuser", Content: "First!"},
	{Author: "admin", Content: "Thanks for reading."},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty content file with sample posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("data")
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path = cfg.DataPath
		}
		return seedPosts(cmd, path)
	},
}

func init() {
	seedCmd.Flags().String("data", "", "Content file (defaults to DATA_PATH or data.json)")
	rootCmd.AddCommand(seedCmd)
}

func seedPosts(cmd *cobra.Command, path string) error {
	posts := service.NewPostService(db.NewFileStore(path), nil)
	if posts.Count() > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "文章已存在，跳过创建")
		return nil
	}

	for _, input := range samplePosts {
		input.OriginAddress = seedAddress
		if _, err := posts.Create(input); err != nil {
			return fmt.Errorf("create sample post: %w", err)
		}
	}

	for _, input := range sampleComments {
		input.OriginAddress = seedAddress
		if err := posts.AddComment(1, input); err != nil {
			return fmt.Errorf("create sample comment: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d sample posts written to %s\n", len(samplePosts), path)
	return nil
}
