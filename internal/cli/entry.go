package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewEntryCommand creates the entry command.
func NewEntryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry <collection> <name>",
		Short: "Show one entry and its values",
		Long: `Show one entry, looked up by name within a collection, with every
stored value in field order. Fields without a value are omitted.

Examples:
  flexstore entry Invoices INV-1
  flexstore entry Invoices INV-1 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntry(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runEntry(opts *RootOptions, ref, name string, cmd *cobra.Command) error {
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

	entry, err := svc.EntryByName(ctx, collection.ID, name)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}

	values, err := svc.Values(ctx, entry)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}

	result := EntryResult{Entry: entry, Values: values}
	return out.Render(result, func(w io.Writer) {
		writeEntry(w, result)
	})
}
