package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/flexstore/internal/filter"
	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/store"
)

// EntriesOptions holds flags for the entries command.
type EntriesOptions struct {
	*RootOptions
	Filters string // path of a filter document
	Order   string // asc | desc
	Values  bool   // materialize values for each entry
}

// EntryResult is an entry with its materialized values.
type EntryResult struct {
	Entry  schema.Entry        `json:"entry"`
	Values []schema.FieldValue `json:"values,omitempty"`
}

// NewEntriesCommand creates the entries command.
func NewEntriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntriesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "entries <collection>",
		Short: "List the entries of a collection matching typed filters",
		Long: `List the entries of a collection in creation order.

Filters are read from a YAML, JSON or CUE document with the keys
text_filters, number_filters, boolean_filters, date_time_filters,
list_filters, relation_filters and object_filters. Every filter must hold
for an entry to match.

Exit codes:
  0 - Query succeeded (possibly with no entries)
  1 - Query rejected (unknown field, type mismatch, bad operand)
  2 - Command error (database not found, unreadable filters, storage failure)

Examples:
  flexstore entries Invoices
  flexstore entries Invoices --filters overdue.yaml --order desc
  flexstore entries Invoices --filters overdue.cue --values --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntries(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filters, "filters", "", "filter document (.yaml, .json or .cue)")
	cmd.Flags().StringVar(&opts.Order, "order", "asc", "creation order (asc|desc)")
	cmd.Flags().BoolVar(&opts.Values, "values", false, "include materialized values")

	return cmd
}

func runEntries(opts *EntriesOptions, ref string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	order, err := filter.ParseOrderBy(opts.Order)
	if err != nil {
		return out.Fail(ErrCodeInvalidInput, WrapExitError(ExitCommandError, "invalid flag", err))
	}

	var filters *filter.EntryFilters
	if opts.Filters != "" {
		filters, err = LoadFilters(opts.Filters)
		if err != nil {
			return out.Fail(ErrCodeInvalidInput, WrapExitError(ExitCommandError, "failed to load filters", err))
		}
		out.VerboseLog("Loaded %d filter(s) from %s", filters.Len(), opts.Filters)
	}

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

	entries, err := svc.ListEntries(ctx, collection.ID, filters, order)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}

	results := make([]EntryResult, 0, len(entries))
	for _, e := range entries {
		r := EntryResult{Entry: e}
		if opts.Values {
			r.Values, err = svc.Values(ctx, e)
			if err != nil {
				return out.Fail(ErrCodeGeneric, err)
			}
		}
		results = append(results, r)
	}

	return out.Render(results, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %d entr(ies)\n", collection.Name, len(results))
		for _, r := range results {
			writeEntry(w, r)
		}
	})
}

func writeEntry(w io.Writer, r EntryResult) {
	fmt.Fprintf(w, "%s  %s  %s\n", r.Entry.ID, store.FormatDateTime(r.Entry.CreatedAt), r.Entry.Name)
	writeValues(w, r.Values)
}
