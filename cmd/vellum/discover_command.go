package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vellum/internal/browser"
	"vellum/internal/credentials"
	"vellum/internal/scrape"
)

// newDiscoverCommand lists categories and manuscript ids without extracting
// anything: a dry-run to verify credentials and selectors against a journal.
func newDiscoverCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <journal-code>",
		Short: "Log in and list discoverable manuscripts without harvesting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			journals, err := cmdCtx.journalsFor(args)
			if err != nil {
				return err
			}
			journal := journals[0]
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			creds := credentials.NewEnvProvider(cfg, cmdCtx.envFile())
			engine, err := scrape.NewEngine(journal, cfg.Browser, cfg.Retry,
				browser.NewRodFactory(cfg.Browser), creds, nil,
				cfg.DiagnosticsDir(journal.Code), logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := engine.Controller().Login(ctx); err != nil {
				return err
			}
			defer engine.Controller().Close()

			categories, err := engine.DiscoverCategories(ctx)
			if err != nil {
				return err
			}

			var rows []table.Row
			total := 0
			for _, cat := range categories {
				refs, err := engine.CollectManuscriptIDs(ctx, cat)
				if err != nil {
					return err
				}
				rows = append(rows, table.Row{cat.Name, cat.ItemCount, len(refs)})
				total += len(refs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				table.Row{"Category", "Declared", "Found"}, rows, 2, 3))
			fmt.Fprintf(cmd.OutOrStdout(), "%d manuscripts discoverable for %s\n", total, journal.Code)
			return nil
		},
	}
}
