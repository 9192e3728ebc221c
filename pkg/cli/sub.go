package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	subTypeFlagName = "type"
	oldValFlagName  = "old"
	newValFlagName  = "new"
)

func newSubstituteCmd() *cli.Command {
	return &cli.Command{
		Name:    "substitute",
		Aliases: []string{"sub"},
		Usage:   "Create a global data substitution (e.g. standardize brand name)",
		UsageText: `gearpulse substitute --type brand --old "Logi" --new "Logitech"   # rename brand
   gearpulse sub --type category --old "keyboards" --new "keyboard"  # merge category`,
		HideHelpCommand: true,
		Action:          cmdSubstitute,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  subTypeFlagName,
				Usage: fmt.Sprintf("Substitution type [%s]", strings.Join(data.UpdatableProperties, ",")),
				Value: "brand",
			},
			&cli.StringFlag{
				Name:     oldValFlagName,
				Usage:    "Old value",
				Required: true,
			},
			&cli.StringFlag{
				Name:     newValFlagName,
				Usage:    "New value",
				Required: true,
			},
		},
	}
}

func cmdSubstitute(_ context.Context, cmd *cli.Command) error {
	sub := cmd.String(subTypeFlagName)
	old := cmd.String(oldValFlagName)
	newVal := cmd.String(newValFlagName)

	if sub == "" || old == "" || newVal == "" {
		return cli.ShowSubcommandHelp(cmd)
	}

	res, err := data.SaveAndApplySub(getConfig(cmd).DB, sub, old, newVal)
	if err != nil {
		return fmt.Errorf("failed to apply substitution: %w", err)
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
