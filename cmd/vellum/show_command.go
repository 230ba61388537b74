package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vellum/internal/repository"
)

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <journal-code> <manuscript-id>",
		Short: "Show a harvested manuscript document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			repo := repository.New(cfg.Paths.OutputDir)
			m, err := repo.LoadManuscript(args[0], args[1])
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(m, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s — %s\n", m.ID, m.Title)
			fmt.Fprintf(out, "Status: %s  Revision: %d  Authors: %d  Documents: %d\n",
				m.Status, m.Revision, len(m.Authors), len(m.Documents))

			if len(m.Referees) > 0 {
				rows := make([]table.Row, 0, len(m.Referees))
				for _, r := range m.Referees {
					received := ""
					if r.ReceivedDate != nil {
						received = r.ReceivedDate.Format("2006-01-02")
					}
					rows = append(rows, table.Row{
						r.Name, r.Email, string(r.Status), len(r.Reports), received,
					})
				}
				fmt.Fprintln(out, renderTable(
					table.Row{"Referee", "Email", "Status", "Reports", "Received"}, rows, 4))
			}
			fmt.Fprintf(out, "%d audit events\n", len(m.Trail))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full JSON document")
	return cmd
}
