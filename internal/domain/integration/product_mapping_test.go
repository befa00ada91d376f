package integration

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ProductMapping Tests
// ---------------------------------------------------------------------------

func member(storeID uuid.UUID, sku string) MappingMember {
	return MappingMember{ProductID: uuid.New(), StoreID: storeID, SKU: sku}
}

func TestNewProductMapping(t *testing.T) {
	companyID := uuid.New()
	storeA, storeB := uuid.New(), uuid.New()

	t.Run("first member is source", func(t *testing.T) {
		p1, p2 := member(storeA, "ABC-100"), member(storeB, "abc-100")
		m, err := NewProductMapping(companyID, " ABC-100 ", "Widget", []MappingMember{p1, p2})
		require.NoError(t, err)

		assert.Equal(t, "ABC-100", m.MasterSKU)
		require.Len(t, m.Items, 2)
		assert.True(t, m.Items[0].IsSource)
		assert.False(t, m.Items[1].IsSource)
		assert.Equal(t, p1.ProductID, m.SourceItem().ProductID)
		assert.Equal(t, m.ID, m.Items[1].MappingID)
		assert.True(t, m.Items[0].CreatedAt.Before(m.Items[1].CreatedAt))
		assert.Equal(t, 2, m.StoreCount())
	})

	t.Run("collapses duplicate products", func(t *testing.T) {
		p1 := member(storeA, "X")
		_, err := NewProductMapping(companyID, "X", "", []MappingMember{p1, p1})
		assert.ErrorIs(t, err, ErrMappingTooFewProducts)
	})

	t.Run("needs two stores", func(t *testing.T) {
		_, err := NewProductMapping(companyID, "X", "", []MappingMember{member(storeA, "X"), member(storeA, "X")})
		assert.ErrorIs(t, err, ErrMappingTooFewStores)
	})

	t.Run("validates master sku", func(t *testing.T) {
		_, err := NewProductMapping(companyID, "  ", "", []MappingMember{member(storeA, ""), member(storeB, "")})
		assert.ErrorIs(t, err, ErrInvalidMasterSKU)
	})
}

func TestProductMapping_AddMembers(t *testing.T) {
	storeA, storeB, storeC := uuid.New(), uuid.New(), uuid.New()
	p1, p2 := member(storeA, "S"), member(storeB, "S")
	m, err := NewProductMapping(uuid.New(), "S", "", []MappingMember{p1, p2})
	require.NoError(t, err)

	p3 := member(storeC, "S")
	added := m.AddMembers([]MappingMember{p2, p3, p3})

	require.Len(t, added, 1)
	assert.Equal(t, p3.ProductID, added[0].ProductID)
	assert.False(t, added[0].IsSource)
	assert.Len(t, m.Items, 3)
	assert.Empty(t, m.AddMembers([]MappingMember{p1}))
}

func TestProductMapping_RemoveProducts(t *testing.T) {
	storeA, storeB, storeC := uuid.New(), uuid.New(), uuid.New()
	p1, p2, p3 := member(storeA, "S"), member(storeB, "S"), member(storeC, "S")

	newMapping := func() *ProductMapping {
		m, err := NewProductMapping(uuid.New(), "S", "", []MappingMember{p1, p2, p3})
		require.NoError(t, err)
		return m
	}

	t.Run("removes a sibling", func(t *testing.T) {
		m := newMapping()
		removed, err := m.RemoveProducts([]uuid.UUID{p3.ProductID})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{p3.ProductID}, removed)
		assert.Len(t, m.Items, 2)
	})

	t.Run("rejects dropping below two", func(t *testing.T) {
		m := newMapping()
		_, err := m.RemoveProducts([]uuid.UUID{p2.ProductID, p3.ProductID})
		assert.ErrorIs(t, err, ErrMappingWouldShrink)
		assert.Len(t, m.Items, 3)
	})

	t.Run("rejects removing source", func(t *testing.T) {
		m := newMapping()
		_, err := m.RemoveProducts([]uuid.UUID{p1.ProductID})
		assert.ErrorIs(t, err, ErrCannotRemoveSource)
	})

	t.Run("rejects leaving a single store", func(t *testing.T) {
		p4 := member(storeA, "S")
		m, err := NewProductMapping(uuid.New(), "S", "", []MappingMember{p1, p4, p2})
		require.NoError(t, err)
		_, err = m.RemoveProducts([]uuid.UUID{p2.ProductID})
		assert.ErrorIs(t, err, ErrMappingWouldShrink)
	})

	t.Run("unknown products are ignored", func(t *testing.T) {
		m := newMapping()
		removed, err := m.RemoveProducts([]uuid.UUID{uuid.New()})
		require.NoError(t, err)
		assert.Empty(t, removed)
		assert.Len(t, m.Items, 3)
	})
}

func TestProductMapping_Siblings(t *testing.T) {
	storeA, storeB := uuid.New(), uuid.New()
	p1, p2 := member(storeA, "S"), member(storeB, "S")
	m, err := NewProductMapping(uuid.New(), "S", "", []MappingMember{p1, p2})
	require.NoError(t, err)

	siblings := m.Siblings(storeA)
	require.Len(t, siblings, 1)
	assert.Equal(t, p2.ProductID, siblings[0].ProductID)
	assert.True(t, m.IsSourceProduct(p1.ProductID))
	assert.False(t, m.IsSourceProduct(p2.ProductID))
	assert.False(t, m.IsSourceProduct(uuid.New()))
}

func TestProductMapping_Rename(t *testing.T) {
	m, err := NewProductMapping(uuid.New(), "S", "", []MappingMember{member(uuid.New(), ""), member(uuid.New(), "")})
	require.NoError(t, err)

	require.NoError(t, m.Rename("NEW-1", " Blue widget "))
	assert.Equal(t, "NEW-1", m.MasterSKU)
	assert.Equal(t, "Blue widget", m.Name)
	assert.ErrorIs(t, m.Rename("", "x"), ErrInvalidMasterSKU)
}

func TestNormalizeMasterSKU(t *testing.T) {
	sku, err := NormalizeMasterSKU("  ABC-100 ")
	require.NoError(t, err)
	assert.Equal(t, "ABC-100", sku)

	_, err = NormalizeMasterSKU("   ")
	assert.ErrorIs(t, err, ErrInvalidMasterSKU)

	_, err = NormalizeMasterSKU(strings.Repeat("x", MaxMasterSKULength+1))
	assert.ErrorIs(t, err, ErrInvalidMasterSKU)

	// length counts characters, not bytes
	_, err = NormalizeMasterSKU(strings.Repeat("é", MaxMasterSKULength))
	assert.NoError(t, err)
}
