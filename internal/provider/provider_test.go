package provider_test

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"magal/internal/model"
	"magal/internal/provider"
	"magal/internal/validation"
	"testing"
)

func TestPath(t *testing.T) {
	assert.Equal(t, "/evenements/12/inscription", provider.Path("evenements", int64(12), "inscription"))
	assert.Equal(t, "/points-interet/3/favori", provider.Path("/points-interet/", 3, "favori"))
}

func TestNormalizePagination(t *testing.T) {
	p := model.Pagination{}
	provider.NormalizePagination(&p, 4)
	assert.Equal(t, model.Pagination{CurrentPage: 1, LastPage: 1, PerPage: 4, Total: 4}, p)

	p = model.Pagination{CurrentPage: 2, LastPage: 5, PerPage: 9, Total: 41}
	provider.NormalizePagination(&p, 9)
	assert.Equal(t, model.Pagination{CurrentPage: 2, LastPage: 5, PerPage: 9, Total: 41}, p)
}

func TestCheckPage_RejectsBrokenItems(t *testing.T) {
	v := validation.New()

	page := &model.Page[model.Event]{Data: []model.Event{{ID: 1, Title: "Magal"}, {ID: 2}}}
	err := provider.CheckPage(v, page)
	require.ErrorIs(t, err, provider.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "item 1")
}

func TestCheckItem(t *testing.T) {
	v := validation.New()

	_, err := provider.CheckItem(v, &model.Item[model.Place]{})
	require.ErrorIs(t, err, provider.ErrMalformedResponse)

	place, err := provider.CheckItem(v, &model.Item[model.Place]{Data: &model.Place{ID: 5, Name: "Poste de santé"}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), place.ID)
}

func TestCheckInput(t *testing.T) {
	err := provider.CheckInput(validation.New(), model.Broadcast{})
	require.ErrorIs(t, err, provider.ErrInvalidInput)
	assert.Contains(t, err.Error(), "titre: required")
}
