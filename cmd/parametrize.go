package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/opsched/app"
	"github.com/kilianp07/opsched/core/schedule"
)

func newParametrizeCmd(opts *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "parametrize [files...]",
		Short: "Infer hours of operation and record parametric descriptors on every schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withService(opts, func(svc *app.Service) error {
				inputs, err := loadInputs(svc, opts, args)
				if err != nil {
					return err
				}
				res, err := svc.Parametrize(ctx, name)
				if err != nil {
					return err
				}
				return writeDocuments(cmd, opts, append(inputs, res.HoursRules)...)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Hours of Operation", "name of the inferred hours of operation schedule")
	return cmd
}

func newRegenerateCmd(opts *options) *cobra.Command {
	var (
		hours string
		save  bool
	)
	cmd := &cobra.Command{
		Use:   "regenerate NAME...",
		Short: "Rebuild stored parametrized schedules under new hours of operation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hoo, err := schedule.ParseHoursOfOperation(hours)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withService(opts, func(svc *app.Service) error {
				var out []*schedule.Ruleset
				for _, name := range args {
					rs, err := svc.LoadStored(ctx, name)
					if err != nil {
						return err
					}
					if _, err := svc.Regenerate(rs, hoo); err != nil {
						return fmt.Errorf("regenerate %s: %w", name, err)
					}
					if save {
						if _, err := svc.Save(ctx, rs); err != nil {
							return err
						}
					}
					out = append(out, rs)
				}
				return writeDocuments(cmd, opts, out...)
			})
		},
	}
	cmd.Flags().StringVar(&hours, "hours", "", `hours of operation, e.g. "default 08:00-18:00, Sat 09:00-13:00, Sun closed"`)
	cmd.Flags().BoolVar(&save, "save", false, "write the regenerated schedules back to the store")
	_ = cmd.MarkFlagRequired("hours")
	return cmd
}

func newStoredCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stored",
		Short: "List schedules held in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(svc *app.Service) error {
				entries, err := svc.Stored(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range entries {
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.ID, e.Name, e.Updated.Format("2006-01-02T15:04:05Z07:00")); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
