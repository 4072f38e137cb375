package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsched/app"
	"github.com/kilianp07/opsched/core/schedule"
	"github.com/kilianp07/opsched/pkg/export"
)

func newTransformCmd(opts *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "transform [files...]",
		Short: "Run the configured pipeline on a schedule and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(svc *app.Service) error {
				if svc.Pipeline.Len() == 0 {
					return fmt.Errorf("no pipeline configured")
				}
				inputs, err := loadInputs(svc, opts, args)
				if err != nil {
					return err
				}
				rs, err := selectOne(svc, inputs, name)
				if err != nil {
					return err
				}
				out, err := svc.Transform(rs)
				if err != nil {
					return err
				}
				return writeDocuments(cmd, opts, out)
			})
		},
	}
	cmd.Flags().StringVar(&name, "schedule", "", "schedule name when several are loaded")
	return cmd
}

func newMergeCmd(opts *options) *cobra.Command {
	var (
		name   string
		inputs []string
	)
	cmd := &cobra.Command{
		Use:     "merge [files...]",
		Short:   "Weighted merge of loaded schedules",
		Example: `  opsched merge zones.yaml --name "Core Occ" --input "Zone A=120" --input "Zone B=80"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			weighted, err := parseWeights(inputs)
			if err != nil {
				return err
			}
			return withService(opts, func(svc *app.Service) error {
				if _, err := loadInputs(svc, opts, args); err != nil {
					return err
				}
				res, err := svc.Merge(name, weighted)
				if err != nil {
					return err
				}
				return writeDocuments(cmd, opts, res.Merged)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Merged", "name of the merged schedule")
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "NAME=WEIGHT of a loaded schedule, repeatable")
	return cmd
}

// parseWeights reads NAME=WEIGHT pairs. The last '=' separates the weight so
// names may contain '='.
func parseWeights(pairs []string) ([]app.WeightedName, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one --input is required")
	}
	out := make([]app.WeightedName, 0, len(pairs))
	for _, p := range pairs {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid input %q: want NAME=WEIGHT", p)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(p[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", p, err)
		}
		out = append(out, app.WeightedName{Name: strings.TrimSpace(p[:i]), Weight: w})
	}
	return out, nil
}

// writeDocuments prints schedules as a YAML schedule file.
func writeDocuments(cmd *cobra.Command, opts *options, rulesets ...*schedule.Ruleset) error {
	f := app.File{}
	for _, rs := range rulesets {
		f.Schedules = append(f.Schedules, rs.Document())
	}
	return writeWith(cmd, opts, func(w io.Writer) error { return export.WriteYAML(w, f) })
}
