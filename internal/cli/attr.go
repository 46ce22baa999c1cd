package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/coerce"
	"github.com/example/aspen/internal/wire"
)

var attrCmd = &cobra.Command{
	Use:   "attr",
	Short: "Read and write entity attributes",
	Long: `Read and write the attributes of any entity by kind and ID.

Examples:
  aspen attr get session 3
  aspen attr set run 12 task_description "finger tapping"
  aspen attr set session 3 MagneticFieldStrength 3T`,
}

var attrGetCmd = &cobra.Command{
	Use:   "get [kind] [id] [attribute]",
	Short: "Show one attribute, or all of them",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1], args[0])
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		a := wire.Archive()
		r, err := lookup(ctx, a, kind, id)
		if err != nil {
			return err
		}

		if len(args) == 2 {
			fields, err := r.Attributes(ctx)
			if err != nil {
				return err
			}
			wire.Presenter(cmd.OutOrStdout()).Attributes(r, fields)
			return nil
		}

		b, err := a.Catalog().Resolve(string(kind), args[2])
		if err != nil {
			return err
		}
		v, err := r.Get(ctx, args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), coerce.Format(b.Column.Type, v))
		return nil
	},
}

var attrSetCmd = &cobra.Command{
	Use:   "set [kind] [id] [attribute] [value]",
	Short: "Write one attribute; n/a clears it",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1], args[0])
		if err != nil {
			return err
		}
		attribute, raw := args[2], args[3]

		return transact(cmd, func(ctx context.Context, a *archive.Archive) error {
			r, err := lookup(ctx, a, kind, id)
			if err != nil {
				return err
			}
			b, err := a.Catalog().Resolve(string(kind), attribute)
			if err != nil {
				return err
			}
			v, err := coerce.Parse(b.Column.Type, raw)
			if err != nil {
				return err
			}
			if err := r.Set(ctx, attribute, v); err != nil {
				return fmt.Errorf("failed to set %s: %w", attribute, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s of %s\n", attribute, r)
			return nil
		})
	},
}

// AttrCmd returns the attr command
func AttrCmd() *cobra.Command {
	attrCmd.AddCommand(attrGetCmd)
	attrCmd.AddCommand(attrSetCmd)
	return attrCmd
}
