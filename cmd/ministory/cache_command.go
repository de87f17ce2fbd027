package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ministory/internal/assetcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune rendered asset storage",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func cacheManager(ctx *commandContext) (*assetcache.Manager, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	manager := assetcache.NewManager(cfg, logger)
	if manager == nil {
		return nil, fmt.Errorf("asset cache is disabled; enable [asset_cache] in the config")
	}
	return manager, nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show rendered asset usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			stats, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rendered file(s), %s of %s used, %s free on disk\n",
				stats.Files,
				formatBytes(stats.TotalBytes),
				formatBytes(stats.MaxBytes),
				formatBytes(int64(stats.FreeBytes)),
			)
			if len(stats.Kinds) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(stats.Kinds))
			for _, kind := range stats.Kinds {
				rows = append(rows, []string{
					kind.Kind,
					fmt.Sprintf("%d", kind.Files),
					formatBytes(kind.TotalBytes),
				})
			}
			renderRows(out, []string{"KIND", "FILES", "SIZE"}, rows)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var keepSession string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune the oldest rendered assets to fit the configured limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := cacheManager(ctx)
			if err != nil {
				return err
			}
			if err := manager.Prune(cmd.Context(), strings.TrimSpace(keepSession)); err != nil {
				return err
			}
			stats, err := manager.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned; %d rendered file(s) remain (%s)\n",
				stats.Files, formatBytes(stats.TotalBytes))
			return nil
		},
	}

	cmd.Flags().StringVar(&keepSession, "keep-session", "", "Session id whose assets must survive pruning")
	return cmd
}

func formatBytes(value int64) string {
	const unit = 1024
	if value < unit {
		return fmt.Sprintf("%d B", value)
	}
	div, exp := int64(unit), 0
	for n := value / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(value)/float64(div), "KMGTPE"[exp])
}
