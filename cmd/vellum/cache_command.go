package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vellum/internal/store"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the per-journal document cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))
	return cacheCmd
}

func newCacheStatsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <journal-code>",
		Short: "Show how many documents the cache indexes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmdCtx, args[0], func(st *store.Store) error {
				count, err := st.DownloadCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cached documents for %s\n", count, args[0])
				return nil
			})
		},
	}
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear <journal-code>",
		Short: "Delete cached documents and their index entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("cache clear is destructive; re-run with --yes to confirm")
			}
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return withLedger(cmdCtx, args[0], func(st *store.Store) error {
				if err := os.RemoveAll(cfg.DownloadDir(args[0])); err != nil {
					return fmt.Errorf("remove download directory: %w", err)
				}
				cleared, err := st.ClearDownloads(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d cache entries removed\n", cleared)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm removal")
	return cmd
}
