package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveProducts_NilDB(t *testing.T) {
	assert.ErrorIs(t, SaveProducts(nil, []*Product{{ID: "x"}}), errDBNotInitialized)
}

func TestSaveProducts_Empty(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, SaveProducts(db, nil))
}

func TestGetProduct(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	p, err := GetProduct(db, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Studio Display", p.Name)
	assert.Equal(t, 3, p.MentionCount)
	assert.Equal(t, 3, p.GetMentionCount())
	assert.ElementsMatch(t, []string{"minimal", "white"}, p.Tags)
	assert.Equal(t, StatusApproved, p.Status)
}

func TestGetProduct_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetProduct(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProducts_KeepsStatus(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	require.NoError(t, SaveProducts(db, []*Product{
		{ID: "m1", Domain: "desktour", Name: "Studio Display 2", Category: "monitor", Tags: []string{"Silver "}},
	}))

	p, err := GetProduct(db, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Studio Display 2", p.Name)
	assert.Equal(t, StatusApproved, p.Status)
	assert.Equal(t, []string{"silver"}, p.Tags)
}

func TestSaveProducts_LensAndBodyTags(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveProducts(db, []*Product{
		{ID: "c1", Domain: "camera", Name: "A7 IV", Category: "body", LensTags: []string{"e-mount"}, BodyTags: []string{"full-frame"}},
	}))

	p, err := GetProduct(db, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e-mount"}, p.LensTags)
	assert.Equal(t, []string{"full-frame"}, p.BodyTags)
	assert.Empty(t, p.Tags)
	assert.Equal(t, StatusPending, p.Status)
}

func TestSearchProducts_TagFilterStyleOnly(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveProducts(db, []*Product{
		{ID: "c1", Domain: "camera", Name: "A7 IV", Category: "body", Status: StatusApproved, BodyTags: []string{"vlog"}},
		{ID: "c2", Domain: "camera", Name: "ZV-E1", Category: "body", Status: StatusApproved, Tags: []string{"vlog"}},
	}))

	list, err := SearchProducts(db, &ProductCriteria{Domain: "camera", Tag: strPtr("vlog")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c2", list[0].ID)

	n, err := CountProducts(db, &ProductCriteria{Domain: "camera", Tag: strPtr("vlog")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearchProducts(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	list, err := SearchProducts(db, &ProductCriteria{Domain: "desktour"})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, "m2", list[1].ID)
	for i := 1; i < len(list); i++ {
		assert.GreaterOrEqual(t, list[i-1].MentionCount, list[i].MentionCount)
	}
	for _, p := range list {
		assert.NotEqual(t, "m4", p.ID, "pending products are not listed")
	}
}

func TestSearchProducts_Filters(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	tests := []struct {
		name string
		c    *ProductCriteria
		want []string
	}{
		{"category", &ProductCriteria{Domain: "desktour", Category: strPtr("keyboard")}, []string{"k1"}},
		{"brand case", &ProductCriteria{Domain: "desktour", Brand: strPtr("apple")}, []string{"m1"}},
		{"tag", &ProductCriteria{Domain: "desktour", Tag: strPtr("Gaming")}, []string{"m3"}},
		{"occupation", &ProductCriteria{Domain: "desktour", Occupation: strPtr("designer")}, []string{"m1", "m2", "m3"}},
		{"pending", &ProductCriteria{Domain: "desktour", Status: strPtr(StatusPending)}, []string{"m4"}},
		{"other domain", &ProductCriteria{Domain: "camera"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := SearchProducts(db, tt.c)
			require.NoError(t, err)
			ids := make([]string, 0, len(list))
			for _, p := range list {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)

			count, err := CountProducts(db, tt.c)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), count)
		})
	}
}

func TestSearchProducts_Paging(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	list, err := SearchProducts(db, &ProductCriteria{Domain: "desktour", Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, list, 1)

	count, err := CountProducts(db, &ProductCriteria{Domain: "desktour", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSearchProducts_DomainRequired(t *testing.T) {
	db := setupTestDB(t)
	_, err := SearchProducts(db, &ProductCriteria{})
	assert.Error(t, err)
	_, err = CountProducts(db, nil)
	assert.Error(t, err)
}

func TestProductCriteria_Normalize(t *testing.T) {
	c := &ProductCriteria{}
	assert.Equal(t, 0, c.Normalize())
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, defaultPageSize, c.PageSize)

	c = &ProductCriteria{Page: 3, PageSize: 10}
	assert.Equal(t, 20, c.Normalize())

	c = &ProductCriteria{PageSize: 10000}
	c.Normalize()
	assert.Equal(t, maxPageSize, c.PageSize)
}

func TestGetCategoryMentionCounts(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	counts, err := GetCategoryMentionCounts(db, "desktour", "monitor")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, counts)
}

func TestGetCategoryCandidates(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)

	list, err := GetCategoryCandidates(db, "desktour", "monitor", "m1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m2", list[0].ID)
	assert.Equal(t, "m3", list[1].ID)
	assert.Equal(t, []string{"minimal"}, list[0].Tags)
}
