package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cuecast/internal/media/audio"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "probe <audio>...",
		Short: "Report audio durations in milliseconds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report, err := audio.NewProber(cfg.Encoder.FFprobeBinary).Durations(cmd.Context(), args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, report)
			}
			rows := make([][]string, 0, len(args)+1)
			for i, path := range args {
				rows = append(rows, []string{path, strconv.FormatInt(report.DurationsMs[i], 10)})
			}
			rows = append(rows, []string{"total", strconv.FormatInt(report.TotalMs, 10)})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Duration (ms)"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
