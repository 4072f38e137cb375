package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsched/app"
	"github.com/kilianp07/opsched/pkg/export"
)

func newHourlyCmd(opts *options) *cobra.Command {
	var (
		name   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "hourly [files...]",
		Short: "Expand a schedule into its annual hourly values",
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
				vals, err := svc.Hourly(rs)
				if err != nil {
					return err
				}
				entries := export.TimestepEntries(svc.Calendar().Year, svc.StepsPerHour(), vals)
				return writeWith(cmd, opts, func(w io.Writer) error {
					switch format {
					case "csv":
						return export.WriteHourlyCSV(w, entries)
					case "json":
						return export.WriteJSON(w, entries)
					default:
						return fmt.Errorf("unsupported format %q", format)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "schedule", "", "schedule name when several are loaded")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
	return cmd
}
