// Package catalog assembles page data: ranked product listings and product
// detail with category rank and related products.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/gearpulse/pkg/config"
	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/mchmarny/gearpulse/pkg/rank"
	"golang.org/x/sync/errgroup"
)

var errDBNotInitialized = errors.New("database not initialized")

// Listing is one page of ranked products.
type Listing struct {
	Items    []rank.Ranked[*data.Product] `json:"items" yaml:"items"`
	Page     int                          `json:"page" yaml:"page"`
	PageSize int                          `json:"page_size" yaml:"page_size"`
	Total    int                          `json:"total" yaml:"total"`
	Pages    int                          `json:"pages" yaml:"pages"`
}

// Detail is a product with its category rank, related products and sources.
type Detail struct {
	Product       *data.Product     `json:"product" yaml:"product"`
	CategoryRank  int               `json:"category_rank" yaml:"category_rank"`
	CategoryTotal int               `json:"category_total" yaml:"category_total"`
	Related       []*RelatedProduct `json:"related" yaml:"related"`
	Sources       []*data.Source    `json:"sources" yaml:"sources"`
}

// GetListing fetches a page of products and the total count in parallel and
// ranks the page by global position.
func GetListing(ctx context.Context, db *sql.DB, c *data.ProductCriteria) (*Listing, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if c == nil {
		return nil, errors.New("criteria required")
	}
	c.Normalize()

	var (
		items []*data.Product
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		list, err := data.SearchProducts(db, c)
		if err != nil {
			return fmt.Errorf("error searching products: %w", err)
		}
		items = list
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		n, err := data.CountProducts(db, c)
		if err != nil {
			return fmt.Errorf("error counting products: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l := &Listing{
		Items: rank.AssignRanks(items, &rank.Options{
			Page:         c.Page,
			Limit:        c.PageSize,
			OnlyIfSorted: true,
		}),
		Page:     c.Page,
		PageSize: c.PageSize,
		Total:    total,
		Pages:    (total + c.PageSize - 1) / c.PageSize,
	}

	slog.Debug("listing", "domain", c.Domain, "page", l.Page, "items", len(l.Items), "total", total)
	return l, nil
}

// GetDetail loads a product and, in parallel, its category rank, related
// products and sources. Products that are not approved are unranked and have
// no related products.
func GetDetail(ctx context.Context, db *sql.DB, cfg *config.Config, id string) (*Detail, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	p, d, err := getProductDomain(db, cfg, id)
	if err != nil {
		return nil, err
	}

	approved := p.Status == data.StatusApproved
	detail := &Detail{Product: p, Related: make([]*RelatedProduct, 0)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		counts, err := data.GetCategoryMentionCounts(db, p.Domain, p.Category)
		if err != nil {
			return fmt.Errorf("error getting category counts: %w", err)
		}
		if approved {
			detail.CategoryRank = rank.CategoryRankOf(p.MentionCount, counts)
		}
		detail.CategoryTotal = len(counts)
		return nil
	})
	if approved {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			list, err := relatedTo(db, p, d)
			if err != nil {
				return err
			}
			detail.Related = list
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		list, err := data.GetProductSources(db, p.ID)
		if err != nil {
			return fmt.Errorf("error getting product sources: %w", err)
		}
		detail.Sources = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return detail, nil
}

// GetRelated returns the related products of an approved product. Products
// that are not approved have none.
func GetRelated(db *sql.DB, cfg *config.Config, id string) ([]*RelatedProduct, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	p, d, err := getProductDomain(db, cfg, id)
	if err != nil {
		return nil, err
	}

	if p.Status != data.StatusApproved {
		return make([]*RelatedProduct, 0), nil
	}

	return relatedTo(db, p, d)
}

func getProductDomain(db *sql.DB, cfg *config.Config, id string) (*data.Product, *config.Domain, error) {
	p, err := data.GetProduct(db, id)
	if err != nil {
		return nil, nil, err
	}

	d, err := cfg.GetDomain(p.Domain)
	if err != nil {
		return nil, nil, fmt.Errorf("product %s: %w", id, err)
	}

	return p, d, nil
}

func relatedTo(db *sql.DB, p *data.Product, d *config.Domain) ([]*RelatedProduct, error) {
	list, err := data.GetCategoryCandidates(db, p.Domain, p.Category, p.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting related candidates: %w", err)
	}
	return Related(p, list, d), nil
}
