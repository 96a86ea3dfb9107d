package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/flexstore/internal/harness"
)

// LoadResult summarizes a seeded fixture.
type LoadResult struct {
	Database    string `json:"database"`
	Collections int    `json:"collections"`
	Fields      int    `json:"fields"`
	Entries     int    `json:"entries"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <fixture>",
		Short: "Seed a database from a YAML fixture",
		Long: `Seed a database from a YAML fixture.

The fixture declares collections, their fields and entries with sparse
values. Everything is written in one transaction; the database is created
if it does not exist.

Examples:
  flexstore load ./fixtures/ledger.yaml --db ledger.db
  flexstore load ./fixtures/ledger.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runLoad(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out.Fail(ErrCodeNotFound, NewExitError(ExitCommandError, fmt.Sprintf("fixture not found: %s", path)))
	}

	fx, err := harness.LoadFixture(path)
	if err != nil {
		return out.Fail(ErrCodeInvalidInput, WrapExitError(ExitCommandError, "invalid fixture", err))
	}

	_, st, err := opts.openService(false)
	if err != nil {
		return out.Fail(ErrCodeGeneric, err)
	}
	defer st.Close()

	out.VerboseLog("Seeding %d collection(s) from %s", len(fx.Collections), path)
	if err := harness.Seed(cmd.Context(), st, fx, harness.SystemClock{}); err != nil {
		return out.Fail(ErrCodeLoadFailed, WrapExitError(ExitCommandError, "failed to seed fixture", err))
	}

	result := LoadResult{Database: opts.config().Database, Collections: len(fx.Collections)}
	for _, c := range fx.Collections {
		result.Fields += len(c.Fields)
		result.Entries += len(c.Entries)
	}

	return out.Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Loaded %d collection(s), %d field(s), %d entr(ies) into %s\n",
			result.Collections, result.Fields, result.Entries, result.Database)
	})
}
