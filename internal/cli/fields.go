package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/flexstore/internal/schema"
)

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields <collection>",
		Short: "Show the field schema of a collection",
		Long: `Show the fields of a collection in creation order.

The collection may be given by name or id.

Examples:
  flexstore fields Invoices
  flexstore fields Invoices --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runFields(opts *RootOptions, ref string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	svc, st, err := opts.openService(true)
	if err != nil {
		return out.Fail(ErrCodeNotFound, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	collection, err := resolveCollection(ctx, svc, ref)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}

	fields, err := svc.Fields(ctx, collection.ID)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}
	if fields == nil {
		fields = []schema.Field{}
	}

	return out.Render(fields, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%d field(s))\n", collection.Name, len(fields))
		for _, f := range fields {
			fmt.Fprintf(w, "  %-20s %-10s %s\n", f.Name, f.DataType, f.ID)
		}
	})
}
