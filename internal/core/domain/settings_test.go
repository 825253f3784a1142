package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.False(t, s.Server.IsConfigured())
	assert.Equal(t, 30*time.Second, s.HTTP.Timeout)
	assert.Equal(t, 3, s.HTTP.MaxRetries)
	assert.Equal(t, DefaultPageSize, s.Search.PageSize)
	assert.Equal(t, SearchContextInventory, s.Search.Context)
	assert.Equal(t, SortDesc, s.Search.SortOrder)
}

func TestServerSettings_IsConfigured(t *testing.T) {
	assert.False(t, ServerSettings{URL: "https://eln.example.org"}.IsConfigured())
	assert.False(t, ServerSettings{Token: "abc"}.IsConfigured())
	assert.True(t, ServerSettings{URL: "https://eln.example.org", Token: "abc"}.IsConfigured())
}

func TestSearchContextByName(t *testing.T) {
	for _, name := range SearchContextNames() {
		ctx, ok := SearchContextByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, ctx.Name)
		assert.True(t, ctx.AllowsType(ResultTypeAll), name)
		assert.True(t, ctx.AllowsStatus(DeletedItemsExclude), name)
	}

	_, ok := SearchContextByName("nope")
	assert.False(t, ok)
}

func TestSearchContext_Restrictions(t *testing.T) {
	picker, _ := SearchContextByName(SearchContextPicker)
	assert.False(t, picker.AllowsType(ResultTypeTemplate))
	assert.False(t, picker.AllowsStatus(DeletedItemsInclude))

	basket, _ := SearchContextByName(SearchContextBasket)
	assert.False(t, basket.AllowsStatus(DeletedItemsDeletedOnly))
	assert.True(t, basket.AllowsStatus(DeletedItemsInclude))

	container, _ := SearchContextByName(SearchContextContainer)
	assert.False(t, container.AllowsType(ResultTypeSample))
	assert.False(t, container.AllowsType(ResultTypeTemplate))
}
