package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cuecast/internal/api"
	"cuecast/internal/jobs"
	"cuecast/internal/jobstore"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect job history",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func openHistory(ctx *commandContext) (*jobstore.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Jobs.History {
		return nil, errors.New("job history is disabled ([jobs] history = false)")
	}
	return jobstore.Open(cfg.HistoryPath())
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []jobs.Status
			for _, value := range statusFlags {
				st, err := jobs.ParseStatus(value)
				if err != nil {
					return err
				}
				statuses = append(statuses, st)
			}
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if asJSON {
				resp := api.JobListResponse{Jobs: make([]api.JobResponse, 0, len(snaps))}
				for _, s := range snaps {
					resp.Jobs = append(resp.Jobs, api.FromSnapshot(s))
				}
				return writeJSON(cmd, resp)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
				return nil
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				duration := "-"
				if s.Status == jobs.StatusSucceeded {
					duration = formatMs(s.DurationMs)
				}
				rows = append(rows, []string{
					s.ID,
					string(s.Status),
					s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					duration,
					truncate(s.Message, 48),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Created", "Duration", "Message"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			snap, ok, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %s not found", args[0])
			}
			if asJSON {
				return writeJSON(cmd, api.FromSnapshot(snap))
			}
			printJob(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")
	return cmd
}

func truncate(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
