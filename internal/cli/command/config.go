package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvsession/internal/cli/output"
	"github.com/yndnr/kvsession/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration without starting the server",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Nested sections read poorly as a table.
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, config.Sanitize(cfg))
}

func configValidate(c *cli.Context) error {
	loader, err := newLoader(c, nil)
	if err != nil {
		return err
	}
	cfg, err := loader.LoadServer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sources := append([]string{"defaults"}, loader.Sources()...)
	fmt.Fprintf(c.App.Writer, "configuration is valid (backend %s)\nsources: %s\n",
		cfg.KV.Backend, strings.Join(sources, ", "))
	return nil
}
