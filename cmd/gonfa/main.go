package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"GoNFA/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "gonfa",
		Short: "Simulate nondeterministic finite automata with epsilon moves",
		Long: `gonfa decides whether an automaton accepts a word.

Words are split into symbols by the configured analyzer (comma-separated by
default). Acceptance is decided by subset simulation with epsilon-closure;
verify re-decides it by brute-force enumeration of state sequences, and
crosscheck compares the two over every short word.

Examples:
  gonfa demo
  gonfa simulate --sample A,A,B
  gonfa verify --file automaton.yaml a,b
  gonfa crosscheck --sample --max-length 4
  gonfa export --state q0,q1 --start q0 --accept q1 -t q0,a,q1 > automaton.yaml
  gonfa serve --config gonfa.yaml`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (auto, text, json); overrides config")

	root.AddCommand(
		newDemoCmd(a),
		newSimulateCmd(a),
		newVerifyCmd(a),
		newCrosscheckCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

// init loads configuration and installs the logger.
func (a *app) init(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cfg, stderr)
	slog.SetDefault(a.logger)
	return nil
}

// newLogger builds a text handler for terminals and a JSON handler otherwise,
// unless the format is forced.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	format := cfg.LogFormat
	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = "text"
		}
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
