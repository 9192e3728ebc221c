package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/catalog"
	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	queryResultLimitDefault = 500

	domainFlagName     = "domain"
	categoryFlagName   = "category"
	brandFlagName      = "brand"
	tagFlagName        = "tag"
	occupationFlagName = "occupation"
	pageFlagName       = "page"
	limitFlagName      = "limit"
	idFlagName         = "id"
	kindFlagName       = "kind"
)

func domainFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     domainFlagName,
		Aliases:  []string{"d"},
		Usage:    "Catalog domain (e.g. desktour, camera)",
		Required: required,
	}
}

func limitFlag(value int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:  limitFlagName,
		Usage: "Limits number of result returned",
		Value: value,
	}
}

func newQueryCmd() *cli.Command {
	return &cli.Command{
		Name:            "query",
		Aliases:         []string{"q"},
		HideHelpCommand: true,
		Usage:           "List ranked products, product details or facets",
		Commands: []*cli.Command{
			{
				Name:  "products",
				Usage: "Ranked list of approved products",
				UsageText: `gearpulse query products --domain desktour --category keyboard
   gearpulse query products --domain camera --tag vlog --page 2`,
				Action: cmdQueryProducts,
				Flags: []cli.Flag{
					domainFlag(true),
					&cli.StringFlag{Name: categoryFlagName, Usage: "Product category"},
					&cli.StringFlag{Name: brandFlagName, Usage: "Brand (case-insensitive)"},
					&cli.StringFlag{Name: tagFlagName, Usage: "Style tag"},
					&cli.StringFlag{Name: occupationFlagName, Usage: "Occupation of the source author"},
					&cli.IntFlag{Name: pageFlagName, Usage: "Page number", Value: 1},
					limitFlag(0),
				},
			},
			{
				Name:   "product",
				Usage:  "Product detail with category rank, related products and sources",
				Action: cmdQueryProduct,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: idFlagName, Usage: "Product ID", Required: true},
				},
			},
			{
				Name:   "facet",
				Usage:  "Approved product counts by category, brand, occupation or tag",
				Action: cmdQueryFacet,
				Flags: []cli.Flag{
					domainFlag(true),
					&cli.StringFlag{
						Name:     kindFlagName,
						Usage:    fmt.Sprintf("Facet kind [%s]", strings.Join(data.FacetKinds, ",")),
						Required: true,
					},
					limitFlag(queryResultLimitDefault),
				},
			},
		},
	}
}

func cmdQueryProducts(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	domain := strings.ToLower(cmd.String(domainFlagName))
	d, err := cfg.Config.GetDomain(domain)
	if err != nil {
		return err
	}

	limit := cmd.Int(limitFlagName)
	if limit < 1 {
		limit = d.PageSize
	}

	res, err := catalog.GetListing(ctx, cfg.DB, &data.ProductCriteria{
		Domain:     domain,
		Category:   optional(cmd.String(categoryFlagName)),
		Brand:      optional(cmd.String(brandFlagName)),
		Tag:        optional(cmd.String(tagFlagName)),
		Occupation: optional(cmd.String(occupationFlagName)),
		Page:       cmd.Int(pageFlagName),
		PageSize:   limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

func cmdQueryProduct(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	res, err := catalog.GetDetail(ctx, cfg.DB, cfg.Config, cmd.String(idFlagName))
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

func cmdQueryFacet(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	domain := strings.ToLower(cmd.String(domainFlagName))
	if _, err := cfg.Config.GetDomain(domain); err != nil {
		return err
	}

	res, err := data.GetFacet(cfg.DB, domain, cmd.String(kindFlagName), cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("failed to get facet: %w", err)
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
