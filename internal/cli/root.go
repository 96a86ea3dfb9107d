package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/flexstore/internal/config"
	"github.com/roach88/flexstore/internal/query"
	"github.com/roach88/flexstore/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string

	// Config is resolved before any subcommand runs.
	Config config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the flexstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flexstore",
		Short: "flexstore - typed queries over flexible-schema collections",
		Long: `flexstore stores sparse typed values per entry and answers structured
queries over them: typed filters, entry lookups and paginated collection
listings.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (yaml, toml or json)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewCollectionsCommand(opts))
	cmd.AddCommand(NewFieldsCommand(opts))
	cmd.AddCommand(NewEntriesCommand(opts))
	cmd.AddCommand(NewEntryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads configuration and installs the logger. Flags win over the
// config file and environment.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	v, err := config.New(o.ConfigFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		v.Set(config.KeyDatabase, o.Database)
	}
	if o.Verbose {
		v.Set(config.KeyLogLevel, "debug")
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	o.Config = cfg

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.Logger = logger
	slog.SetDefault(logger)
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		out, color := terminal(w)
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !color,
		})
	}
	return slog.New(handler), nil
}

// terminal wraps w for ANSI output when it is a terminal.
func terminal(w io.Writer) (io.Writer, bool) {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return w, false
	}
	return colorable.NewColorable(f), true
}

// logger returns the resolved logger, or the default one when the root
// pre-run did not execute (commands built standalone in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *RootOptions) config() config.Config {
	if o.Config.Database == "" {
		cfg := config.Defaults()
		if o.Database != "" {
			cfg.Database = o.Database
		}
		return cfg
	}
	return o.Config
}

// openService opens the configured database. With mustExist, a missing
// database file is a command error instead of being created.
func (o *RootOptions) openService(mustExist bool) (*query.Service, *store.Store, error) {
	cfg := o.config()

	if mustExist && cfg.Database != ":memory:" {
		if _, err := os.Stat(cfg.Database); os.IsNotExist(err) {
			return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", cfg.Database))
		}
	}

	o.logger().Debug("opening database", "path", cfg.Database, "language", cfg.Search.Language)
	st, err := store.Open(cfg.Database, store.WithSearchLanguage(cfg.Language()))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	svc := query.New(st,
		query.WithLogger(o.logger()),
		query.WithPaginationDefaults(cfg.Pagination),
	)
	return svc, st, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
