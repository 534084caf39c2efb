package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navstate/internal/config"
	"github.com/vango-dev/navstate/internal/errors"
	"github.com/vango-dev/navstate/pkg/navtree"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes navctl with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		errors.Print(stderr, err)
		return 1
	}
	return 0
}

// cli holds the state shared by all commands.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string
	noColor    bool

	logger *slog.Logger
	styles styles
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "navctl",
		Short: "Exercise navstate navigation configs from the command line",
		Long: `navctl loads a navstate.toml or navstate.json config and drives the
navigation engine it describes.

  • resolve deep links and build URIs for destinations
  • simulate navigation sequences and print the resulting tree
  • validate configs before shipping them
  • serve a live inspector with snapshot persistence`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Config file or directory (default: current directory)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&c.logFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVar(&c.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		c.resolveCmd(),
		c.uriCmd(),
		c.simulateCmd(),
		c.validateCmd(),
		c.explainCmd(),
		c.storeCmd(),
		c.serveCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) init() error {
	level, ok := parseLevel(c.logLevel)
	if !ok {
		return errors.New("N501").WithDetail("unknown --log-level " + c.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.logFormat) {
	case "json":
		c.logger = slog.New(slog.NewJSONHandler(c.stderr, opts))
	case "text", "":
		c.logger = slog.New(slog.NewTextHandler(c.stderr, opts))
	default:
		return errors.New("N501").WithDetail("unknown --log-format " + c.logFormat)
	}

	if c.noColor {
		errors.DisableColors()
	}
	c.styles = newStyles(lipgloss.NewRenderer(c.stdout), c.noColor)
	return nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}

// loadConfig loads --config, which may name a file or a directory.
func (c *cli) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = "."
	}
	if config.Exists(path) {
		return config.Load(path)
	}
	return config.LoadFromDir(filepath.Clean(path))
}

// load loads and builds the config. keys generates the initial tree's keys.
func (c *cli) load(keys navtree.KeyGenerator) (*config.Config, *config.Setup, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	setup, err := cfg.Build(keys)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Debug("config loaded", "path", cfg.Path(), "patterns", len(cfg.Routes))
	return cfg, setup, nil
}
