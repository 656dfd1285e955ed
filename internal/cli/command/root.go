package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvsession/internal/cli/output"
	"github.com/yndnr/kvsession/internal/infra/buildinfo"
	"github.com/yndnr/kvsession/internal/infra/confloader"
	"github.com/yndnr/kvsession/internal/server/config"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/storage/backends"
	"github.com/yndnr/kvsession/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "kvsession",
		Usage:   "Cookie sessions over a pluggable key-value store",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			SessionsCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		HideVersion: true,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"KVSESSION_CONFIG"},
		},
		&cli.StringSliceFlag{
			Name:  "set",
			Usage: "Override a configuration key, e.g. --set kv.backend=redis",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config string
	Set    []string
	Output string
	Wide   bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config: c.String("config"),
		Set:    c.StringSlice("set"),
		Output: c.String("output"),
		Wide:   c.Bool("wide"),
	}
}

// parseOverrides turns key=value pairs into loader overrides.
func parseOverrides(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", p)
		}
		out[key] = value
	}
	return out, nil
}

// newLoader builds a configuration loader from the global flags. extra
// overrides take precedence over --set.
func newLoader(c *cli.Context, extra map[string]any) (*confloader.Loader, error) {
	flags := ParseGlobalFlags(c)
	overrides, err := parseOverrides(flags.Set)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 && overrides == nil {
		overrides = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		overrides[k] = v
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if flags.Config != "" {
		opts = append(opts, confloader.WithConfigFile(flags.Config))
	}
	return confloader.NewLoader(opts...), nil
}

// loadConfig returns the verified server configuration.
func loadConfig(c *cli.Context) (*config.ServerConfig, error) {
	loader, err := newLoader(c, nil)
	if err != nil {
		return nil, err
	}
	cfg, err := loader.LoadServer()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the process logger from cfg and installs it as the
// default. Output goes to w.
func newLogger(cfg *config.ServerConfig, w io.Writer) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.SetDefault(log)
	return log, logger.Slog(log), nil
}

// openStore opens the configured backend for a one-off command. Logs go
// to stderr at warn level so they do not mix with command output.
func openStore(ctx context.Context, c *cli.Context, cfg *config.ServerConfig) (storage.Store, error) {
	quiet := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return backends.Open(ctx, cfg.BackendConfig(), quiet)
}

// write renders data in the format selected by --output.
func write(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
