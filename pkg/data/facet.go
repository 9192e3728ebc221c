package data

import (
	"database/sql"
	"fmt"
)

const (
	FacetCategory   = "category"
	FacetBrand      = "brand"
	FacetOccupation = "occupation"
	FacetTag        = "tag"

	selectCategoryFacetSQL = `SELECT p.category, COUNT(*) AS cnt
		FROM product p
		WHERE p.domain = ? AND p.status = ? AND p.category != ''
		GROUP BY p.category
		ORDER BY 2 DESC, 1
		LIMIT ?
	`

	selectBrandFacetSQL = `SELECT p.brand, COUNT(*) AS cnt
		FROM product p
		WHERE p.domain = ? AND p.status = ? AND p.brand != ''
		GROUP BY p.brand
		ORDER BY 2 DESC, 1
		LIMIT ?
	`

	selectOccupationFacetSQL = `SELECT s.occupation, COUNT(DISTINCT m.product_id) AS cnt
		FROM source s
		JOIN mention m ON m.source_id = s.id
		JOIN product p ON p.id = m.product_id
		WHERE p.domain = ? AND p.status = ? AND s.occupation != ''
		GROUP BY s.occupation
		ORDER BY 2 DESC, 1
		LIMIT ?
	`

	selectTagFacetSQL = `SELECT t.tag, COUNT(DISTINCT t.product_id) AS cnt
		FROM product_tag t
		JOIN product p ON p.id = t.product_id
		WHERE p.domain = ? AND p.status = ? AND t.kind = 'style'
		GROUP BY t.tag
		ORDER BY 2 DESC, 1
		LIMIT ?
	`
)

var facetQueries = map[string]string{
	FacetCategory:   selectCategoryFacetSQL,
	FacetBrand:      selectBrandFacetSQL,
	FacetOccupation: selectOccupationFacetSQL,
	FacetTag:        selectTagFacetSQL,
}

// FacetKinds lists the supported facet kinds.
var FacetKinds = []string{FacetCategory, FacetBrand, FacetOccupation, FacetTag}

type CountedItem struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// GetFacet returns approved-product counts grouped by the given kind.
func GetFacet(db *sql.DB, domain, kind string, limit int) ([]*CountedItem, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	query, ok := facetQueries[kind]
	if !ok {
		return nil, fmt.Errorf("invalid facet kind: %s (permitted options: %v)", kind, FacetKinds)
	}

	if limit < 1 {
		limit = maxPageSize
	}

	rows, err := db.Query(rebind(db, query), domain, StatusApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s facet: %w", kind, err)
	}
	defer rows.Close()

	list := make([]*CountedItem, 0)
	for rows.Next() {
		c := &CountedItem{}
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, c)
	}

	return list, rows.Err()
}
