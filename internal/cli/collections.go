package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/flexstore/internal/query"
	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/store"
)

// CollectionsOptions holds flags for the collections command.
type CollectionsOptions struct {
	*RootOptions
	Name   string
	After  string
	Before string
	Page   int
	Size   int
}

// NewCollectionsCommand creates the collections command.
func NewCollectionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CollectionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List collections one page at a time",
		Long: `List collections in creation order, one page at a time.

--name matches whole words of the collection name, ignoring case and
accents in the configured search language. --after and --before are
inclusive RFC 3339 bounds on the creation time. Page numbers below 1 and
sizes outside [1, 100] are clamped.

Examples:
  flexstore collections
  flexstore collections --name invoice
  flexstore collections --page 2 --size 25 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollections(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "full-text match on collection names")
	cmd.Flags().StringVar(&opts.After, "after", "", "created at or after (RFC 3339)")
	cmd.Flags().StringVar(&opts.Before, "before", "", "created at or before (RFC 3339)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number (default from config)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "page size (default from config)")

	return cmd
}

func runCollections(opts *CollectionsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	q, err := opts.query(cmd)
	if err != nil {
		return out.Fail(ErrCodeInvalidInput, WrapExitError(ExitCommandError, "invalid flag", err))
	}

	svc, st, err := opts.openService(true)
	if err != nil {
		return out.Fail(ErrCodeNotFound, err)
	}
	defer st.Close()

	page, err := svc.PaginateCollections(cmd.Context(), q)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}

	return out.Render(page, func(w io.Writer) {
		writeCollectionsPage(w, page)
	})
}

// query builds the page request. Only flags given on the command line are
// set so unset ones fall back to the configured defaults.
func (o *CollectionsOptions) query(cmd *cobra.Command) (query.CollectionsQuery, error) {
	var q query.CollectionsQuery
	flags := cmd.Flags()

	if flags.Changed("page") {
		q.Page = &o.Page
	}
	if flags.Changed("size") {
		q.Size = &o.Size
	}
	if flags.Changed("name") {
		q.NameQuery = &o.Name
	}
	if o.After != "" {
		t, err := time.Parse(time.RFC3339, o.After)
		if err != nil {
			return q, fmt.Errorf("--after: %w", err)
		}
		q.CreatedAfter = &t
	}
	if o.Before != "" {
		t, err := time.Parse(time.RFC3339, o.Before)
		if err != nil {
			return q, fmt.Errorf("--before: %w", err)
		}
		q.CreatedBefore = &t
	}
	return q, nil
}

func writeCollectionsPage(w io.Writer, page schema.CollectionsPage) {
	fmt.Fprintf(w, "Page %d/%d (%d collection(s), size %d)\n", page.Index, page.NumPages, page.NumItems, page.Size)
	for _, c := range page.Items {
		fmt.Fprintf(w, "  %s  %s  %s\n", c.ID, store.FormatDateTime(c.CreatedAt), c.Name)
	}
}
