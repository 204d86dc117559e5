package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adamkeys/garage/internal/store"
)

// NewConsumableCommand creates the consumable command and its subcommands.
func NewConsumableCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consumable",
		Short: "Manage the consumables catalog",
	}
	cmd.AddCommand(newConsumableAddCommand(rootOpts))
	cmd.AddCommand(newConsumableListCommand(rootOpts))
	return cmd
}

func newConsumableAddCommand(opts *RootOptions) *cobra.Command {
	var c store.Consumable
	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Add a consumable to the catalog",
		Example: `  garage consumable add "Oil 5W30" --reference OIL-5W30 --price 12.50`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Name = args[0]
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				c, err := st.CreateConsumable(ctx, c)
				if err != nil {
					return failed("failed to add consumable", err)
				}
				return write(cmd, opts, c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added consumable %d (%s)\n", c.ID, c.Name)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&c.Reference, "reference", "", "supplier reference")
	cmd.Flags().Float64Var(&c.Price, "price", 0, "unit price")
	return cmd
}

func newConsumableListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [name]",
		Short: "List consumables, optionally those whose name contains name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				cs, err := st.Consumables(ctx, name)
				if err != nil {
					return failed("failed to list consumables", err)
				}
				if cs == nil {
					cs = []store.Consumable{}
				}
				return write(cmd, opts, cs, func(w io.Writer) error {
					if len(cs) == 0 {
						_, err := fmt.Fprintln(w, "No consumables found.")
						return err
					}
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tREFERENCE\tPRICE")
					for _, c := range cs {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", c.ID, c.Name, c.Reference, c.Price)
					}
					return tw.Flush()
				})
			})
		},
	}
}

// NewOperationCommand creates the operation command and its subcommands.
func NewOperationCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operation",
		Short: "Record the operations of an intervention",
	}
	cmd.AddCommand(newOperationAddCommand(rootOpts))
	cmd.AddCommand(newOperationListCommand(rootOpts))
	return cmd
}

func newOperationAddCommand(opts *RootOptions) *cobra.Command {
	var lines []string
	cmd := &cobra.Command{
		Use:     "add <intervention-id> <name>",
		Short:   "Record an operation and the consumables it used",
		Example: `  garage operation add 1 "oil change" --use 3:4 --use 5`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ivID, err := parseID(args[0])
			if err != nil {
				return err
			}
			opLines := make([]store.OperationLine, 0, len(lines))
			for _, l := range lines {
				line, err := parseLine(l)
				if err != nil {
					return err
				}
				opLines = append(opLines, line)
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				op, err := st.AddOperation(ctx, ivID, args[1], opLines)
				if err != nil {
					return failed("failed to add operation", err)
				}
				return write(cmd, opts, op, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Added operation %d with %d consumables\n", op.ID, len(op.Lines))
					return err
				})
			})
		},
	}
	cmd.Flags().StringArrayVar(&lines, "use", nil, "consumable used, as id or id:quantity (repeatable)")
	return cmd
}

func newOperationListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <intervention-id>",
		Short: "List the operations of an intervention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ivID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				ops, err := st.Operations(ctx, ivID)
				if err != nil {
					return failed("failed to list operations", err)
				}
				if ops == nil {
					ops = []store.Operation{}
				}
				return write(cmd, opts, ops, func(w io.Writer) error {
					if len(ops) == 0 {
						_, err := fmt.Fprintln(w, "No operations found.")
						return err
					}
					for _, op := range ops {
						fmt.Fprintf(w, "%d %s\n", op.ID, op.Name)
						for _, l := range op.Lines {
							fmt.Fprintf(w, "  consumable %d x%d\n", l.ConsumableID, l.Quantity)
						}
					}
					return nil
				})
			})
		},
	}
}

// parseLine parses "id" or "id:quantity".
func parseLine(s string) (store.OperationLine, error) {
	id, qty, found := strings.Cut(s, ":")
	consumableID, err := parseID(id)
	if err != nil {
		return store.OperationLine{}, err
	}
	line := store.OperationLine{ConsumableID: consumableID, Quantity: 1}
	if found {
		n, err := strconv.ParseInt(qty, 10, 64)
		if err != nil || n <= 0 {
			return store.OperationLine{}, WrapExitError(ExitCommandError, "invalid arguments",
				fmt.Errorf("invalid quantity in %q", s))
		}
		line.Quantity = n
	}
	return line, nil
}

// NewPropertyCommand creates the property command and its subcommands.
func NewPropertyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Store and read free-form properties",
	}
	cmd.AddCommand(newPropertySetCommand(rootOpts))
	cmd.AddCommand(newPropertyGetCommand(rootOpts))
	return cmd
}

func newPropertySetCommand(opts *RootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Set a property from a value or the contents of a file",
		Example: `  garage property set garage.name "Garage du Centre"
  garage property set logo --file logo.png`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value []byte
			switch {
			case path != "" && len(args) == 2:
				return WrapExitError(ExitCommandError, "invalid arguments", errors.New("give either a value or --file"))
			case path != "":
				data, err := os.ReadFile(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read value", err)
				}
				value = data
			case len(args) == 2:
				value = []byte(args[1])
			}
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				if err := st.SetProperty(ctx, args[0], value); err != nil {
					return failed("failed to set property", err)
				}
				return write(cmd, opts, map[string]any{"key": args[0], "size": len(value)}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Set %s (%d bytes)\n", args[0], len(value))
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "read the value from this file")
	return cmd
}

func newPropertyGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Write a property value to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, st *store.Store) error {
				value, err := st.Property(ctx, args[0])
				if err != nil {
					return failed("failed to get property", err)
				}
				return write(cmd, opts, map[string]any{"key": args[0], "value": value}, func(w io.Writer) error {
					_, err := w.Write(value)
					return err
				})
			})
		},
	}
}
