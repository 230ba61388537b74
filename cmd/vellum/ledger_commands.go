package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vellum/internal/store"
)

func newLedgerCommand(cmdCtx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and maintain the per-journal run ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(cmdCtx))
	ledgerCmd.AddCommand(newLedgerStatsCommand(cmdCtx))
	ledgerCmd.AddCommand(newLedgerResetCommand(cmdCtx))
	ledgerCmd.AddCommand(newLedgerClearCommand(cmdCtx))
	return ledgerCmd
}

// withLedger opens the journal's ledger for the duration of fn.
func withLedger(cmdCtx *commandContext, code string, fn func(*store.Store) error) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	if _, ok := cfg.JournalByCode(code); !ok {
		return fmt.Errorf("unknown journal code %q", code)
	}
	st, err := store.Open(cfg.DatabasePath(code))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func newLedgerListCommand(cmdCtx *commandContext) *cobra.Command {
	var statusFlag string
	cmd := &cobra.Command{
		Use:   "list <journal-code>",
		Short: "List ledger items for a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmdCtx, args[0], func(st *store.Store) error {
				items, err := st.List(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if statusFlag != "" {
					status, ok := store.ParseStatus(statusFlag)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFlag)
					}
					filtered := items[:0]
					for _, item := range items {
						if item.Status == status {
							filtered = append(filtered, item)
						}
					}
					items = filtered
				}

				rows := make([]table.Row, 0, len(items))
				for _, item := range items {
					partial := ""
					if item.Partial {
						partial = "partial"
					}
					rows = append(rows, table.Row{
						item.ManuscriptID,
						item.Category,
						string(item.Status),
						item.Attempts,
						partial,
						item.UpdatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					table.Row{"Manuscript", "Category", "Status", "Attempts", "", "Updated"},
					rows, 4))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&statusFlag, "status", "", "Only show items in this status")
	return cmd
}

func newLedgerStatsCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <journal-code>",
		Short: "Show per-status ledger counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmdCtx, args[0], func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				var rows []table.Row
				total := 0
				for _, status := range []store.Status{
					store.StatusPending, store.StatusExtracting, store.StatusExtracted,
					store.StatusEnriching, store.StatusPersisting,
					store.StatusCompleted, store.StatusFailed,
				} {
					count := stats[status]
					if count == 0 {
						continue
					}
					rows = append(rows, table.Row{string(status), count})
					total += count
				}
				rows = append(rows, table.Row{"total", total})
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Status", "Items"}, rows, 2))
				return nil
			})
		},
	}
}

func newLedgerResetCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <journal-code>",
		Short: "Return interrupted in-flight items to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmdCtx, args[0], func(st *store.Store) error {
				reset, err := st.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d items returned to pending\n", reset)
				return nil
			})
		},
	}
}

func newLedgerClearCommand(cmdCtx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear <journal-code>",
		Short: "Remove every ledger item for a journal (download cache stays)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("ledger clear is destructive; re-run with --yes to confirm")
			}
			return withLedger(cmdCtx, args[0], func(st *store.Store) error {
				removed, err := st.Clear(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d items removed\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm removal")
	return cmd
}
