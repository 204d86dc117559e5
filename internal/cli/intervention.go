package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamkeys/garage/internal/store"
)

// NewInterventionCommand creates the intervention command and its subcommands.
func NewInterventionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "intervention",
		Aliases: []string{"iv"},
		Short:   "Record and list interventions",
	}
	cmd.AddCommand(newInterventionAddCommand(rootOpts))
	cmd.AddCommand(newInterventionListCommand(rootOpts))
	return cmd
}

func newInterventionAddCommand(opts *RootOptions) *cobra.Command {
	var (
		date        string
		mileage     int64
		description string
	)
	cmd := &cobra.Command{
		Use:     "add <car-id>",
		Short:   "Record an intervention on a car",
		Example: `  garage intervention add 1 --date 2023-06-01 --mileage 42000 --description brakes`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			carID, err := parseID(args[0])
			if err != nil {
				return err
			}
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			if day.IsZero() {
				day = time.Now()
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				iv, err := st.CreateIntervention(ctx, store.Intervention{
					CarID:       carID,
					Date:        day,
					Mileage:     mileage,
					Description: description,
				})
				if err != nil {
					return failed("failed to add intervention", err)
				}
				return write(cmd, opts, iv, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added intervention %d on %s\n", iv.ID, formatDate(iv.Date))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "intervention date (YYYY-MM-DD, default today)")
	cmd.Flags().Int64Var(&mileage, "mileage", 0, "mileage at the intervention")
	cmd.Flags().StringVar(&description, "description", "", "work carried out")
	return cmd
}

func newInterventionListCommand(opts *RootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list [car-id]",
		Short: "List the interventions of a car or of a day",
		Example: `  garage intervention list 1
  garage intervention list --date 2023-06-01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (date == "") {
				return WrapExitError(ExitCommandError, "invalid arguments",
					errors.New("give either a car id or --date"))
			}
			var (
				carID int64
				day   time.Time
				err   error
			)
			if len(args) == 1 {
				carID, err = parseID(args[0])
			} else {
				day, err = parseDate(date)
			}
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				var ivs []store.Intervention
				var err error
				if carID != 0 {
					ivs, err = st.Interventions(ctx, carID)
				} else {
					ivs, err = st.InterventionsOn(ctx, day)
				}
				if err != nil {
					return failed("failed to list interventions", err)
				}
				if ivs == nil {
					ivs = []store.Intervention{}
				}
				return write(cmd, opts, ivs, func(w io.Writer) error {
					return writeInterventions(w, ivs)
				})
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "list the interventions of this day (YYYY-MM-DD)")
	return cmd
}

func writeInterventions(w io.Writer, ivs []store.Intervention) error {
	if len(ivs) == 0 {
		_, err := fmt.Fprintln(w, "No interventions found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAR\tDATE\tMILEAGE\tDESCRIPTION")
	for _, iv := range ivs {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%s\n", iv.ID, iv.CarID, formatDate(iv.Date), iv.Mileage, iv.Description)
	}
	return tw.Flush()
}
