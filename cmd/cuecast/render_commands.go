package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cuecast/internal/config"
	"cuecast/internal/fileutil"
	"cuecast/internal/jobs"
	"cuecast/internal/jobstore"
	"cuecast/internal/pipeline"
)

func readJobFile(path string) (pipeline.Request, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return pipeline.Request{}, errors.New("--job is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("read job file: %w", err)
	}
	return pipeline.DecodeRequest(data)
}

func newService(ctx *commandContext, cmd *cobra.Command, cfg *config.Config) (*pipeline.Service, func(), error) {
	var (
		opts    []jobs.Option
		cleanup = func() {}
	)
	if cfg.Jobs.History {
		store, err := jobstore.Open(cfg.HistoryPath())
		if err != nil {
			return nil, nil, fmt.Errorf("open job history: %w", err)
		}
		opts = append(opts, jobs.WithObserver(store.Observer(ctx.logger())))
		cleanup = func() { _ = store.Close() }
	}
	svc, err := pipeline.NewService(cfg, jobs.NewRegistry(cfg.Jobs.Shards, opts...), ctx.logger())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var jobPath, outPath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a job file to a video in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := readJobFile(jobPath)
			if err != nil {
				return err
			}
			svc, cleanup, err := newService(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := svc.Render(cmd.Context(), req)
			if err != nil {
				return err
			}
			if snap.Status == jobs.StatusSucceeded && strings.TrimSpace(outPath) != "" {
				if _, err := fileutil.Export(snap.Output, outPath); err != nil {
					return err
				}
				snap.Output = outPath
			}
			printJob(cmd.OutOrStdout(), snap)
			if snap.Status != jobs.StatusSucceeded {
				return fmt.Errorf("job %s failed", snap.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&jobPath, "job", "j", "", "Job document (JSON or YAML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Copy the finished video here")
	return cmd
}

func newOverlayCommand(ctx *commandContext) *cobra.Command {
	var jobPath, outPath string
	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Write only the subtitle overlay for a job file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outPath) == "" {
				return errors.New("--out is required")
			}
			prepared, err := prepareJob(ctx, cmd, jobPath)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, prepared.Overlay.Document, 0o644); err != nil {
				return fmt.Errorf("write overlay: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d events (%s layout) to %s\n",
				len(prepared.Overlay.Plan.Events), prepared.Settings.Layout, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&jobPath, "job", "j", "", "Job document (JSON or YAML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination .ass file")
	return cmd
}

func newGraphCommand(ctx *commandContext) *cobra.Command {
	var jobPath string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the encoder inputs and filter graph for a job file",
		RunE: func(cmd *cobra.Command, args []string) error {
			prepared, err := prepareJob(ctx, cmd, jobPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Inputs:")
			for i, in := range prepared.Composition.Inputs {
				fmt.Fprintf(out, "  [%d] %s\n", i, strings.Join(in.Args, " "))
			}
			fmt.Fprintln(out, "Filter graph:")
			fmt.Fprintln(out, prepared.Composition.Graph.String())
			fmt.Fprintln(out, "Command:")
			fmt.Fprintln(out, prepared.Invocation.String())
			return nil
		},
	}
	cmd.Flags().StringVarP(&jobPath, "job", "j", "", "Job document (JSON or YAML)")
	return cmd
}

func prepareJob(ctx *commandContext, cmd *cobra.Command, jobPath string) (pipeline.Prepared, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return pipeline.Prepared{}, err
	}
	req, err := readJobFile(jobPath)
	if err != nil {
		return pipeline.Prepared{}, err
	}
	svc, err := pipeline.NewService(cfg, jobs.NewRegistry(1), ctx.logger())
	if err != nil {
		return pipeline.Prepared{}, err
	}
	dir, err := os.MkdirTemp(cfg.Paths.WorkDir, "preview-")
	if err != nil {
		return pipeline.Prepared{}, fmt.Errorf("create preview dir: %w", err)
	}
	return svc.Prepare(cmd.Context(), req, dir)
}

func printJob(w io.Writer, snap jobs.Snapshot) {
	fmt.Fprintf(w, "Job:      %s\n", snap.ID)
	fmt.Fprintf(w, "Status:   %s\n", snap.Status)
	if snap.Status == jobs.StatusSucceeded {
		fmt.Fprintf(w, "Duration: %s\n", formatMs(snap.DurationMs))
		fmt.Fprintf(w, "Output:   %s\n", snap.Output)
	}
	if snap.Message != "" {
		fmt.Fprintf(w, "Message:  %s\n", snap.Message)
	}
}
