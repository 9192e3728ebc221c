//go:build integration

package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgres_Catalog(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("gearpulse"),
		postgres.WithUsername("gearpulse"),
		postgres.WithPassword("gearpulse"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Init(dsn))
	require.NoError(t, Init(dsn), "migrations are idempotent")

	db, err := GetDB(dsn)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, isPostgres(db))
	assert.Equal(t, "SELECT $1, $2", rebind(db, "SELECT ?, ?"))

	seedCatalog(t, db)

	list, err := SearchProducts(db, &ProductCriteria{Domain: "desktour", Tag: strPtr("minimal")})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "m1", list[0].ID)

	counts, err := GetCategoryMentionCounts(db, "desktour", "monitor")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, counts)

	facet, err := GetFacet(db, "desktour", FacetCategory, 10)
	require.NoError(t, err)
	assert.Equal(t, "monitor", facet[0].Name)

	sub, err := SaveAndApplySub(db, "brand", "LG", "LG Electronics")
	require.NoError(t, err)
	assert.Equal(t, int64(1), sub.Records)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(5), state["product"])
}
