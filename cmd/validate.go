package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsched/app"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [files...]",
		Short: "Report rules shadowed by or overlapping earlier rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(svc *app.Service) error {
				inputs, err := loadInputs(svc, opts, args)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				total := 0
				for _, rs := range inputs {
					overlaps, _ := svc.Validate(rs)
					for _, o := range overlaps {
						if _, err := fmt.Fprintf(w, "%s: %s\n", rs.Name, o); err != nil {
							return err
						}
					}
					total += len(overlaps)
				}
				_, err = fmt.Fprintf(w, "%d schedules, %d overlaps\n", len(inputs), total)
				return err
			})
		},
	}
}
