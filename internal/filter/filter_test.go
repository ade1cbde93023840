package filter

import (
	"testing"

	"github.com/and161185/imageshop/internal/model"
	"github.com/stretchr/testify/require"
)

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func ids(imgs []model.Image) []string {
	out := make([]string, 0, len(imgs))
	for _, i := range imgs {
		out = append(out, i.ID)
	}
	return out
}

var catalog = []model.Image{
	{ID: "1", Title: "Sunset over dunes", Description: "Warm desert light", Price: model.Dollars(20), CategoryID: "cat1"},
	{ID: "2", Title: "Harbor", Description: "Blue SUNSET at the pier", Price: model.Dollars(75), CategoryID: "cat1"},
	{ID: "3", Title: "Forest sunset", Description: "Pines", Price: model.Dollars(10), CategoryID: "cat2"},
}

func TestApply_CategoryPriceSearch(t *testing.T) {
	st := model.FilterState{
		SelectedCategoryIDs: set("cat1"),
		PriceMin:            0,
		PriceMax:            model.Dollars(50),
		SearchTerm:          "sunset",
	}
	require.Equal(t, []string{"1"}, ids(Apply(catalog, nil, nil, st)))
}

func TestApply_PassThroughs(t *testing.T) {
	st := model.FilterState{PriceMax: model.Dollars(100), SearchTerm: "   "}
	require.Equal(t, []string{"1", "2", "3"}, ids(Apply(catalog, nil, nil, st)))
}

func TestApply_PriceInclusive(t *testing.T) {
	st := model.FilterState{PriceMin: model.Dollars(10), PriceMax: model.Dollars(20)}
	require.Equal(t, []string{"1", "3"}, ids(Apply(catalog, nil, nil, st)))
}

func TestApply_Favorites(t *testing.T) {
	st := model.FilterState{PriceMax: model.Dollars(100), FavoritesOnly: true}
	require.Equal(t, []string{"2"}, ids(Apply(catalog, nil, set("2"), st)))

	st = model.FilterState{PriceMax: model.Dollars(100), ShowFavoritesOnly: true}
	require.Empty(t, Apply(catalog, nil, nil, st))
}

func TestApply_TagsMatchAnyDisplayName(t *testing.T) {
	tags := []model.Tag{{ID: "t1", Name: "Desert"}, {ID: "t2", Name: "pines"}, {ID: "t3", Name: "ocean"}}
	st := model.FilterState{PriceMax: model.Dollars(100), SelectedTagIDs: set("t1", "t2")}
	require.Equal(t, []string{"1", "3"}, ids(Apply(catalog, tags, nil, st)))

	st.SelectedTagIDs = set("unknown")
	require.Empty(t, Apply(catalog, tags, nil, st))
}

func TestAdminSearch(t *testing.T) {
	require.Equal(t, []string{"2"}, ids(AdminSearch(catalog, "HARBOR")))
	require.Equal(t, []string{"3"}, ids(AdminSearch(catalog, "3")))
	require.Len(t, AdminSearch(catalog, ""), 3)
}

func TestPriceRange(t *testing.T) {
	var p PriceRange
	lo, hi := p.Bounds()
	require.Equal(t, model.Money(0), lo)
	require.Equal(t, model.Money(0), hi)

	p.Observe(nil)
	lo, hi = p.Bounds()
	require.Zero(t, lo)
	require.Zero(t, hi)

	p.Observe(catalog)
	lo, hi = p.Bounds()
	require.Equal(t, model.Dollars(10), lo)
	require.Equal(t, model.Dollars(75), hi)

	p.Set(model.Dollars(60), model.Dollars(15))
	require.True(t, p.Adjusted())
	p.Observe(append(catalog, model.Image{ID: "4", Price: model.Dollars(500)}))
	lo, hi = p.Bounds()
	require.Equal(t, model.Dollars(15), lo)
	require.Equal(t, model.Dollars(60), hi)

	var st model.FilterState
	p.ApplyTo(&st)
	require.Equal(t, model.Dollars(60), st.PriceMax)

	p.Reset(catalog)
	require.False(t, p.Adjusted())
	_, hi = p.Bounds()
	require.Equal(t, model.Dollars(75), hi)
}
