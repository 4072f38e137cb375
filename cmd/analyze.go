package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsched/app"
	"github.com/kilianp07/opsched/core/analysis"
	"github.com/kilianp07/opsched/pkg/export"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Summarize schedules over the configured year",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(svc *app.Service) error {
				inputs, err := loadInputs(svc, opts, args)
				if err != nil {
					return err
				}
				sums := make([]analysis.Summary, len(inputs))
				for i, rs := range inputs {
					sums[i] = svc.Analyze(rs)
				}
				return writeWith(cmd, opts, func(w io.Writer) error {
					switch format {
					case "json":
						return export.WriteJSON(w, sums)
					case "yaml":
						return export.WriteYAML(w, sums)
					default:
						return fmt.Errorf("unsupported format %q", format)
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func newHistogramCmd(opts *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "histogram [files...]",
		Short: "Count the days governed by each profile of a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(svc *app.Service) error {
				inputs, err := loadInputs(svc, opts, args)
				if err != nil {
					return err
				}
				rs, err := selectOne(svc, inputs, name)
				if err != nil {
					return err
				}
				hist := svc.Histogram(rs)
				return writeWith(cmd, opts, func(w io.Writer) error {
					return export.WriteHistogramCSV(w, rs, hist)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "schedule", "", "schedule name when several are loaded")
	return cmd
}
