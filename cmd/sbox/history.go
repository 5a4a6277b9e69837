package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/czj19920117/mbox/internal/config"
	"github.com/czj19920117/mbox/internal/history"
)

func historyCmd() *cobra.Command {
	hc := &cobra.Command{
		Use:   "history",
		Short: "Inspect past sbox runs and commit decisions",
	}

	hc.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List past runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openHistoryForCmd(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.ListRuns()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROOT\tCOMMAND\tSTARTED\tEXIT")
			for _, r := range runs {
				exit := "-"
				if r.ExitCode != nil {
					exit = fmt.Sprintf("%d", *r.ExitCode)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Root, r.Command, r.StartedAt.Format("2006-01-02 15:04:05"), exit)
			}
			w.Flush()
			return nil
		},
	})

	hc.AddCommand(&cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show commit decisions recorded for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openHistoryForCmd(cmd)
			if err != nil {
				return err
			}
			defer h.Close()

			entries, err := h.ListCommits(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no commit decisions recorded for that run")
				return nil
			}
			for _, e := range entries {
				status := "ignored"
				if e.Committed {
					status = "committed"
				}
				fmt.Printf("%-9s %s\n", status, e.HPN)
			}
			return nil
		},
	})

	return hc
}

func openHistoryForCmd(cmd *cobra.Command) (*history.History, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dsn := cfg.HistoryDB
	if dsn == "" {
		p, err := config.DefaultHistoryDB()
		if err != nil {
			return nil, err
		}
		dsn = p
	}
	return history.Open(dsn)
}
