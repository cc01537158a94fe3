package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatblog/internal/blocklist"
	"github.com/flatblog/internal/config"
)

var blockCmd = &cobra.Command{
	Use:   "block ADDRESS...",
	Short: "Deny every request from the given addresses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := blocklistStore(cmd)
		if err != nil {
			return err
		}
		for _, addr := range args {
			added, err := store.Add(strings.TrimSpace(addr))
			if err != nil {
				return fmt.Errorf("block %s: %w", addr, err)
			}
			if added {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ blocked %s\n", addr)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already blocked\n", addr)
			}
		}
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock ADDRESS...",
	Short: "Allow requests from previously blocked addresses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := blocklistStore(cmd)
		if err != nil {
			return err
		}
		for _, addr := range args {
			removed, err := store.Remove(strings.TrimSpace(addr))
			if err != nil {
				return fmt.Errorf("unblock %s: %w", addr, err)
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ unblocked %s\n", addr)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not blocked\n", addr)
			}
		}
		return nil
	},
}

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "List blocked addresses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := blocklistStore(cmd)
		if err != nil {
			return err
		}
		for _, addr := range store.Load().Sorted() {
			fmt.Fprintln(cmd.OutOrStdout(), addr)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{blockCmd, unblockCmd, blocklistCmd} {
		cmd.Flags().String("blocklist", "", "Blocklist file (defaults to BLOCKLIST_PATH or blocked_ips.json)")
	}
}

// blocklistStore 优先使用 --blocklist，其次读取配置。
func blocklistStore(cmd *cobra.Command) (*blocklist.Store, error) {
	path, _ := cmd.Flags().GetString("blocklist")
	if strings.TrimSpace(path) == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.BlocklistPath
	}
	return blocklist.NewStore(path), nil
}
