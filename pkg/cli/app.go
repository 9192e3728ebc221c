package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/config"
	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/mchmarny/gearpulse/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "gearpulse"
	appConfigKey = "app-config"

	debugFlagName  = "debug"
	dirFlagName    = "dir"
	dbFlagName     = "db"
	configFlagName = "config"
	formatFlagName = "format"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	DBPath string
	Debug  bool
	Format string
	DB     *sql.DB
	Config *config.Config
}

func getConfig(cmd *cli.Command) *appConfig {
	cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig)
	if !ok {
		return &appConfig{}
	}
	return cfg
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Ranked desk setup and camera gear mentions from videos and articles",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:    dirFlagName,
				Usage:   "App directory holding config, database and token (default: $HOME/.gearpulse)",
				Sources: cli.EnvVars("GEARPULSE_DIR"),
			},
			&cli.StringFlag{
				Name:    dbFlagName,
				Usage:   "Path to the SQLite database file or a postgres:// DSN",
				Sources: cli.EnvVars("GEARPULSE_DB"),
			},
			&cli.StringFlag{
				Name:  configFlagName,
				Usage: "Path to the config file (default: <dir>/config.yaml)",
			},
			&cli.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*cli.Command{
			newAuthCmd(),
			newImportCmd(),
			newQueryCmd(),
			newReviewCmd(),
			newSubstituteCmd(),
			newRefreshCmd(),
			newResetCmd(),
			newServerCmd(),
		},
		Before: initApp,
		After: func(_ context.Context, cmd *cli.Command) error {
			if cfg := getConfig(cmd); cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func initApp(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	debug := cmd.Bool(debugFlagName)
	if debug {
		logging.SetDefaultCLILogger("debug")
	}

	dir := cmd.String(dirFlagName)
	if dir == "" {
		home, _, err := config.GetOrCreateHomeDir(appName)
		if err != nil {
			return ctx, fmt.Errorf("getting app dir: %w", err)
		}
		dir = home
	}

	c, err := readConfig(dir, cmd.String(configFlagName))
	if err != nil {
		return ctx, err
	}

	dbPath := cmd.String(dbFlagName)
	if dbPath == "" {
		dbPath = filepath.Join(dir, data.DataFileName)
	}

	if err := data.Init(dbPath); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(dbPath)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	format := formatJSON
	if f := strings.ToLower(cmd.String(formatFlagName)); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	slog.Debug("app initialized", "dir", dir, "db", dbPath, "format", format)

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		Dir:    dir,
		DBPath: dbPath,
		Debug:  debug,
		Format: format,
		DB:     db,
		Config: c,
	}
	return ctx, nil
}

func readConfig(dir, path string) (*config.Config, error) {
	if path != "" {
		c, err := config.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		return c, nil
	}

	c, err := config.ReadOrCreate(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return c, nil
}

// encode writes v to the command output in the selected format.
func encode(cmd *cli.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if w == nil {
		return errors.New("writer required")
	}
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
