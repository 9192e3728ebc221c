package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	fileFlagName    = "file"
	approveFlagName = "approve"
)

func newImportCmd() *cli.Command {
	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import sources, products and mentions from a YAML or JSON file",
		UsageText: `gearpulse import --file desks.yaml              # import for review
   gearpulse import --file cameras.json --approve  # import and approve all products`,
		HideHelpCommand: true,
		Action:          cmdImport,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     fileFlagName,
				Aliases:  []string{"f"},
				Usage:    "Path to the import file (.yaml, .yml or .json)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  approveFlagName,
				Usage: "Mark imported products approved (skips review)",
			},
		},
	}
}

func cmdImport(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	path := cmd.String(fileFlagName)

	res, err := data.ImportFile(cfg.DB, path, &data.ImportOptions{
		Approve: cmd.Bool(approveFlagName),
		Domains: cfg.Config.Domains,
	})
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	slog.Debug("imported", "file", path, "products", res.Products, "sources", res.Sources)

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
