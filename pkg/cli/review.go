package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/urfave/cli/v3"
)

type statusResult struct {
	ID     string `json:"id" yaml:"id"`
	Status string `json:"status" yaml:"status"`
}

func newReviewCmd() *cli.Command {
	return &cli.Command{
		Name:            "review",
		Aliases:         []string{"r"},
		HideHelpCommand: true,
		Usage:           "Review imported products before they appear in listings",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List products pending review",
				Action: cmdReviewList,
				Flags: []cli.Flag{
					domainFlag(false),
					limitFlag(queryResultLimitDefault),
				},
			},
			newStatusCmd("approve", data.StatusApproved),
			newStatusCmd("reject", data.StatusRejected),
		},
	}
}

func newStatusCmd(name, status string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("Mark products %s", status),
		UsageText: fmt.Sprintf("gearpulse review %s --id mx-master --id hhkb", name),
		Action: func(_ context.Context, cmd *cli.Command) error {
			return setStatus(cmd, status)
		},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     idFlagName,
				Usage:    "Product ID (can be specified multiple times)",
				Required: true,
			},
		},
	}
}

func cmdReviewList(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	domain := optional(strings.ToLower(cmd.String(domainFlagName)))
	list, err := data.GetPendingProducts(cfg.DB, domain, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("failed to list pending products: %w", err)
	}

	if err := encode(cmd, list); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

func setStatus(cmd *cli.Command, status string) error {
	cfg := getConfig(cmd)

	ids := cmd.StringSlice(idFlagName)
	res := make([]*statusResult, 0, len(ids))
	for _, id := range ids {
		if err := data.SetProductStatus(cfg.DB, id, status); err != nil {
			return fmt.Errorf("failed to set %s status: %w", id, err)
		}
		slog.Debug("status updated", "id", id, "status", status)
		res = append(res, &statusResult{ID: id, Status: status})
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
