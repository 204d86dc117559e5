package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adamkeys/garage/internal/store"
)

// carFlags holds the car fields settable from the command line.
type carFlags struct {
	Registration string
	Brand        string
	Model        string
	Owner        string
	Mileage      int64
	Registered   string
}

func (f *carFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Registration, "registration", "", "registration plate")
	cmd.Flags().StringVar(&f.Brand, "brand", "", "brand")
	cmd.Flags().StringVar(&f.Model, "model", "", "model")
	cmd.Flags().StringVar(&f.Owner, "owner", "", "owner name")
	cmd.Flags().Int64Var(&f.Mileage, "mileage", 0, "mileage in kilometers")
	cmd.Flags().StringVar(&f.Registered, "registered", "", "first registration date (YYYY-MM-DD)")
}

// apply copies the flags set on cmd into car.
func (f *carFlags) apply(cmd *cobra.Command, car *store.Car) error {
	changed := cmd.Flags().Changed
	if changed("registration") {
		car.Registration = f.Registration
	}
	if changed("brand") {
		car.Brand = f.Brand
	}
	if changed("model") {
		car.Model = f.Model
	}
	if changed("owner") {
		car.Owner = f.Owner
	}
	if changed("mileage") {
		car.Mileage = f.Mileage
	}
	if changed("registered") {
		t, err := parseDate(f.Registered)
		if err != nil {
			return err
		}
		car.Registered = t
	}
	return nil
}

// NewCarCommand creates the car command and its subcommands.
func NewCarCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "car",
		Short: "Manage cars",
	}
	cmd.AddCommand(newCarAddCommand(rootOpts))
	cmd.AddCommand(newCarListCommand(rootOpts))
	cmd.AddCommand(newCarUpdateCommand(rootOpts))
	cmd.AddCommand(newCarRemoveCommand(rootOpts))
	return cmd
}

func newCarAddCommand(opts *RootOptions) *cobra.Command {
	var flags carFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a car",
		Example: `  garage car add --registration AB-123-CD --brand Peugeot --owner Alice
  garage car add --registration AB-123-CD --registered 2018-05-04 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var car store.Car
			if err := flags.apply(cmd, &car); err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				car, err := st.CreateCar(ctx, car)
				if err != nil {
					return failed("failed to add car", err)
				}
				return write(cmd, opts, car, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added car %d (%s)\n", car.ID, car.Registration)
					return err
				})
			})
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("registration")
	return cmd
}

func newCarListCommand(opts *RootOptions) *cobra.Command {
	var flags carFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cars",
		Long: `List the cars ordered by registration.

Text filters match any part of the field, so --owner ali lists the cars of Alice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.CarFilter{
				Registration: flags.Registration,
				Owner:        flags.Owner,
				Brand:        flags.Brand,
			}
			if cmd.Flags().Changed("mileage") {
				filter.Mileage = &flags.Mileage
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				cars, err := st.SearchCars(ctx, filter)
				if err != nil {
					return failed("failed to list cars", err)
				}
				if cars == nil {
					cars = []store.Car{}
				}
				return write(cmd, opts, cars, func(w io.Writer) error {
					return writeCars(w, cars)
				})
			})
		},
	}
	cmd.Flags().StringVar(&flags.Registration, "registration", "", "registration plate contains")
	cmd.Flags().StringVar(&flags.Brand, "brand", "", "brand contains")
	cmd.Flags().StringVar(&flags.Owner, "owner", "", "owner name contains")
	cmd.Flags().Int64Var(&flags.Mileage, "mileage", 0, "exact mileage")
	return cmd
}

func newCarUpdateCommand(opts *RootOptions) *cobra.Command {
	var flags carFlags
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change the fields of a car",
		Example: `  garage car update 1 --owner Bob --mileage 43000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				car, err := st.Car(ctx, id)
				if err != nil {
					return failed("failed to update car", err)
				}
				if err := flags.apply(cmd, &car); err != nil {
					return err
				}
				if err := st.UpdateCar(ctx, car); err != nil {
					return failed("failed to update car", err)
				}
				return write(cmd, opts, car, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated car %d\n", car.ID)
					return err
				})
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newCarRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a car and its interventions",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				if err := st.DeleteCar(ctx, id); err != nil {
					return failed("failed to remove car", err)
				}
				return write(cmd, opts, map[string]int64{"id": id}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Removed car %d\n", id)
					return err
				})
			})
		},
	}
}

func writeCars(w io.Writer, cars []store.Car) error {
	if len(cars) == 0 {
		_, err := fmt.Fprintln(w, "No cars found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREGISTRATION\tBRAND\tMODEL\tOWNER\tMILEAGE\tREGISTERED")
	for _, c := range cars {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			c.ID, c.Registration, c.Brand, c.Model, c.Owner, c.Mileage, formatDate(c.Registered))
	}
	return tw.Flush()
}
