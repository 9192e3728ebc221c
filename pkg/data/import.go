package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/config"
	"gopkg.in/yaml.v3"
)

const (
	approveProductSQL = `UPDATE product SET status = ? WHERE id = ?`
)

// ImportBatch is the file format accepted by ImportFile.
// Records without a domain inherit the batch domain.
type ImportBatch struct {
	Domain   string     `json:"domain" yaml:"domain"`
	Sources  []*Source  `json:"sources" yaml:"sources" validate:"dive,required"`
	Products []*Product `json:"products" yaml:"products" validate:"dive,required"`
	Mentions []*Mention `json:"mentions" yaml:"mentions" validate:"dive,required"`
}

type ImportOptions struct {
	// Approve marks every imported product approved.
	Approve bool
	// Domains restricts the accepted domains when set. Product price ranges,
	// categories and style tags must come from the domain's lists.
	Domains map[string]*config.Domain
}

func (o *ImportOptions) domainNames() []string {
	return (&config.Config{Domains: o.Domains}).DomainNames()
}

// domain returns the settings for name and whether the name is accepted.
func (o *ImportOptions) domain(name string) (*config.Domain, bool) {
	if len(o.Domains) == 0 {
		return nil, true
	}
	d, ok := o.Domains[name]
	return d, ok
}

type ImportResult struct {
	Sources       int `json:"sources" yaml:"sources"`
	Products      int `json:"products" yaml:"products"`
	Mentions      int `json:"mentions" yaml:"mentions"`
	Substitutions int `json:"substitutions" yaml:"substitutions"`
}

// ReadImportFile decodes a YAML or JSON batch based on the file extension.
func ReadImportFile(path string) (*ImportBatch, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file %s: %w", path, err)
	}

	batch := &ImportBatch{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, batch)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, batch)
	default:
		return nil, fmt.Errorf("unsupported import file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode import file %s: %w", path, err)
	}

	return batch, nil
}

// ImportFile reads, validates and saves a batch in a single transaction.
func ImportFile(db *sql.DB, path string, opts *ImportOptions) (*ImportResult, error) {
	batch, err := ReadImportFile(path)
	if err != nil {
		return nil, err
	}
	return Import(db, batch, opts)
}

func Import(db *sql.DB, batch *ImportBatch, opts *ImportOptions) (*ImportResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	if batch == nil {
		return nil, errors.New("import batch is required")
	}

	if opts == nil {
		opts = &ImportOptions{}
	}

	batch.fillDomain()

	if err := checkBatch(db, batch, opts); err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := importBatch(db, tx, batch, opts); err != nil {
		rollbackTransaction(tx)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	subs, err := ApplySubstitutions(db)
	if err != nil {
		return nil, fmt.Errorf("failed to apply substitutions: %w", err)
	}

	res := &ImportResult{
		Sources:       len(batch.Sources),
		Products:      len(batch.Products),
		Mentions:      len(batch.Mentions),
		Substitutions: len(subs),
	}

	slog.Debug("import complete",
		"sources", res.Sources,
		"products", res.Products,
		"mentions", res.Mentions,
		"subs", res.Substitutions)

	return res, nil
}

func (b *ImportBatch) fillDomain() {
	for _, s := range b.Sources {
		if s != nil && s.Domain == "" {
			s.Domain = b.Domain
		}
	}
	for _, p := range b.Products {
		if p != nil && p.Domain == "" {
			p.Domain = b.Domain
		}
	}
}

func checkBatch(db *sql.DB, b *ImportBatch, opts *ImportOptions) error {
	if err := validateStruct(b); err != nil {
		return err
	}

	sources := make(map[string]bool, len(b.Sources))
	for _, s := range b.Sources {
		if _, ok := opts.domain(s.Domain); !ok {
			return fmt.Errorf("source %s: invalid domain: %s (permitted options: %v)", s.ID, s.Domain, opts.domainNames())
		}
		sources[s.ID] = true
	}

	products := make(map[string]bool, len(b.Products))
	for _, p := range b.Products {
		d, ok := opts.domain(p.Domain)
		if !ok {
			return fmt.Errorf("product %s: invalid domain: %s (permitted options: %v)", p.ID, p.Domain, opts.domainNames())
		}
		if err := checkProduct(p, d); err != nil {
			return err
		}
		products[p.ID] = true
	}

	for i, m := range b.Mentions {
		if !products[m.ProductID] {
			if _, err := GetProduct(db, m.ProductID); err != nil {
				return fmt.Errorf("mention[%d]: unknown product %s: %w", i, m.ProductID, err)
			}
		}
		if !sources[m.SourceID] {
			if _, err := GetSource(db, m.SourceID); err != nil {
				return fmt.Errorf("mention[%d]: unknown source %s: %w", i, m.SourceID, err)
			}
		}
	}

	return nil
}

// checkProduct verifies the product against the domain vocabularies.
// Empty category or tag lists accept any value.
func checkProduct(p *Product, d *config.Domain) error {
	if d == nil {
		return nil
	}

	if p.PriceRange != "" && !Contains(d.PriceRanges, p.PriceRange) {
		return fmt.Errorf("product %s: invalid price range: %s (permitted options: %v)", p.ID, p.PriceRange, d.PriceRanges)
	}

	if len(d.Categories) > 0 && !Contains(d.Categories, p.Category) {
		return fmt.Errorf("product %s: invalid category: %s (permitted options: %v)", p.ID, p.Category, d.Categories)
	}

	if len(d.Tags) > 0 {
		for _, t := range p.Tags {
			if !Contains(d.Tags, normalizeTag(t)) {
				return fmt.Errorf("product %s: invalid tag: %s (permitted options: %v)", p.ID, t, d.Tags)
			}
		}
	}

	return nil
}

func importBatch(db *sql.DB, tx *sql.Tx, b *ImportBatch, opts *ImportOptions) error {
	if len(b.Sources) > 0 {
		if err := saveSources(db, tx, b.Sources); err != nil {
			return err
		}
	}

	if len(b.Products) > 0 {
		if err := saveProducts(db, tx, b.Products); err != nil {
			return err
		}
	}

	if len(b.Mentions) > 0 {
		if err := saveMentions(db, tx, b.Mentions); err != nil {
			return err
		}
	}

	if !opts.Approve {
		return nil
	}

	for _, p := range b.Products {
		if _, err := tx.Exec(rebind(db, approveProductSQL), StatusApproved, p.ID); err != nil {
			return fmt.Errorf("error approving product %s: %w", p.ID, err)
		}
	}

	return nil
}
