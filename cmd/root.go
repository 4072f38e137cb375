// Package cmd implements the opsched command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsched/app"
	"github.com/kilianp07/opsched/config"
	"github.com/kilianp07/opsched/core/schedule"
	"github.com/kilianp07/opsched/infra/logger"
)

// options holds the flags shared by every subcommand.
type options struct {
	cfgPath   string
	standards []string
	out       string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "opsched",
		Short:         "Building operating schedule engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.PersistentFlags().StringSliceVarP(&opts.standards, "standard", "s", nil, "schedule name to build from the standards dataset")
	root.PersistentFlags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	root.AddCommand(
		newAnalyzeCmd(opts),
		newHourlyCmd(opts),
		newHistogramCmd(opts),
		newValidateCmd(opts),
		newTransformCmd(opts),
		newMergeCmd(opts),
		newParametrizeCmd(opts),
		newRegenerateCmd(opts),
		newStoredCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		logger.New("cli").Errorf("%v", err)
		return err
	}
	return nil
}

// withService loads the configuration, builds the service and hands it to fn.
func withService(opts *options, fn func(svc *app.Service) error) error {
	var cfg *config.Config
	var err error
	if opts.cfgPath == "" {
		cfg, err = config.Load("")
	} else {
		cfg, err = config.Load(opts.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("cli").Errorf("service close: %v", err)
		}
	}()
	return fn(svc)
}

// loadInputs registers the schedules of every file argument and of every
// --standard name, in that order.
func loadInputs(svc *app.Service, opts *options, files []string) ([]*schedule.Ruleset, error) {
	var out []*schedule.Ruleset
	for _, f := range files {
		rs, err := svc.LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	for _, name := range opts.standards {
		rs, err := svc.Standard(name)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no schedule given: pass files or --standard")
	}
	return out, nil
}

// selectOne picks the schedule called name, or the only input when name is empty.
func selectOne(svc *app.Service, inputs []*schedule.Ruleset, name string) (*schedule.Ruleset, error) {
	if name != "" {
		return svc.Schedule(name)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("%d schedules loaded: pick one with --schedule", len(inputs))
	}
	return inputs[0], nil
}

// output opens the --out file or returns the command's stdout.
func output(cmd *cobra.Command, opts *options) (io.Writer, func() error, error) {
	if opts.out == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// writeWith runs write against the configured output and closes it.
func writeWith(cmd *cobra.Command, opts *options, write func(w io.Writer) error) error {
	w, closeFn, err := output(cmd, opts)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
