package catalog

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func product(id, name, brand, category string, featured bool, ageDays int, prices ...int64) Product {
	p := Product{
		ID:        id,
		Slug:      id,
		Name:      name,
		Brand:     brand,
		Category:  CategoryRef{ID: "cat-" + category, Slug: category},
		Featured:  featured,
		CreatedAt: base.AddDate(0, 0, -ageDays),
	}
	for _, price := range prices {
		p.Variants = append(p.Variants, Variant{ID: id + "-v", Price: price, Available: 1})
	}
	return p
}

func fixtures() []Product {
	return []Product{
		product("case-a", "Armor Case", "Shieldco", "cases", false, 3, 2499, 1999),
		product("cable-b", "Braided USB-C Cable", "Voltix", "cables", true, 10, 1299),
		product("charger-c", "charger 65W", "Voltix", "chargers", false, 1, 3999),
		product("case-d", "Clear Case", "shieldco", "cases", true, 5, 1499),
		product("stand-e", "Desk Stand", "Perch", "stands", false, 7),
	}
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func ptr(v int64) *int64 { return &v }

func TestParseSortKey(t *testing.T) {
	key, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortFeatured, key)

	key, err = ParseSortKey(" Price-DESC ")
	require.NoError(t, err)
	assert.Equal(t, SortPriceDesc, key)

	_, err = ParseSortKey("popularity")
	assert.Error(t, err)
}

func TestFilterAndSortTextMatchesNameBrandOrDescription(t *testing.T) {
	items := fixtures()
	items[4].Description = "Aluminium stand for any CASE size"

	got := FilterAndSort(items, Query{Text: "case", Sort: SortNameAsc})
	assert.Equal(t, []string{"case-a", "case-d", "stand-e"}, ids(got))

	got = FilterAndSort(items, Query{Text: "VOLTIX", Sort: SortNameAsc})
	assert.Equal(t, []string{"cable-b", "charger-c"}, ids(got))
}

func TestFilterAndSortCategoryAndBrands(t *testing.T) {
	got := FilterAndSort(fixtures(), Query{Category: "cases", Sort: SortOldest})
	assert.Equal(t, []string{"case-d", "case-a"}, ids(got))

	got = FilterAndSort(fixtures(), Query{Category: "cat-cables"})
	assert.Equal(t, []string{"cable-b"}, ids(got))

	got = FilterAndSort(fixtures(), Query{Brands: []string{"SHIELDCO", " perch "}, Sort: SortNewest})
	assert.Equal(t, []string{"case-a", "case-d", "stand-e"}, ids(got))
}

func TestFilterAndSortPriceUsesMinimumVariantPrice(t *testing.T) {
	got := FilterAndSort(fixtures(), Query{PriceMin: ptr(1500), PriceMax: ptr(2000), Sort: SortPriceAsc})
	assert.Equal(t, []string{"case-a"}, ids(got))

	got = FilterAndSort(fixtures(), Query{PriceMax: ptr(1499), Sort: SortPriceAsc})
	assert.Equal(t, []string{"cable-b", "case-d"}, ids(got))

	// products without variants have no price and never match a price bound
	got = FilterAndSort(fixtures(), Query{PriceMin: ptr(0)})
	assert.NotContains(t, ids(got), "stand-e")
}

func TestFilterAndSortInStockOnly(t *testing.T) {
	items := fixtures()
	items[0].Variants[0].Available = 0
	items[0].Variants[1].Available = 0

	got := FilterAndSort(items, Query{InStockOnly: true, Sort: SortNameAsc})
	assert.Equal(t, []string{"cable-b", "charger-c", "case-d"}, ids(got))
}

func TestFilterAndSortOrders(t *testing.T) {
	cases := map[SortKey][]string{
		SortFeatured:  {"case-d", "cable-b", "charger-c", "case-a", "stand-e"},
		SortNewest:    {"charger-c", "case-a", "case-d", "stand-e", "cable-b"},
		SortOldest:    {"cable-b", "stand-e", "case-d", "case-a", "charger-c"},
		SortPriceAsc:  {"cable-b", "case-d", "case-a", "charger-c", "stand-e"},
		SortPriceDesc: {"charger-c", "case-a", "case-d", "cable-b", "stand-e"},
		SortNameAsc:   {"case-a", "cable-b", "charger-c", "case-d", "stand-e"},
		SortNameDesc:  {"stand-e", "case-d", "charger-c", "cable-b", "case-a"},
		"bogus":       {"case-d", "cable-b", "charger-c", "case-a", "stand-e"},
	}
	for key, want := range cases {
		t.Run(string(key), func(t *testing.T) {
			assert.Equal(t, want, ids(FilterAndSort(fixtures(), Query{Sort: key})))
		})
	}
}

func TestFilterAndSortIsStableOnTies(t *testing.T) {
	items := []Product{
		product("p1", "Same", "B", "c", false, 1, 1000),
		product("p2", "same", "B", "c", false, 1, 1000),
		product("p3", "SAME", "B", "c", false, 1, 1000),
	}
	for _, key := range SortKeys {
		assert.Equal(t, []string{"p1", "p2", "p3"}, ids(FilterAndSort(items, Query{Sort: key})), key)
	}
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	items := fixtures()
	before := ids(items)

	_ = FilterAndSort(items, Query{Sort: SortPriceDesc})
	_ = FilterAndSort(items, Query{Text: "case", Sort: SortNameDesc})

	assert.Equal(t, before, ids(items))
}

func TestFilterAndSortResultsAlwaysSatisfyQuery(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	brands := []string{"Voltix", "Shieldco", "Perch"}
	categories := []string{"cases", "cables", "chargers"}

	var items []Product
	for i := 0; i < 200; i++ {
		p := product(
			string(rune('a'+i%26))+string(rune('a'+i/26)),
			"Item",
			brands[rng.Intn(len(brands))],
			categories[rng.Intn(len(categories))],
			rng.Intn(2) == 0,
			rng.Intn(30),
			int64(rng.Intn(5000)), int64(rng.Intn(5000)),
		)
		p.Variants[0].Available = rng.Intn(2)
		p.Variants[1].Available = rng.Intn(2)
		items = append(items, p)
	}

	q := Query{Category: "cases", Brands: []string{"voltix"}, PriceMin: ptr(1000), PriceMax: ptr(4000), InStockOnly: true, Sort: SortPriceAsc}
	got := FilterAndSort(items, q)

	var prev int64 = -1
	for _, p := range got {
		price, ok := p.MinPrice()
		require.True(t, ok)
		assert.Equal(t, "cases", p.Category.Slug)
		assert.Equal(t, "Voltix", p.Brand)
		assert.True(t, price >= 1000 && price <= 4000)
		assert.True(t, p.InStock())
		assert.GreaterOrEqual(t, price, prev)
		prev = price
	}

	matching := 0
	for _, p := range items {
		price, _ := p.MinPrice()
		if p.Category.Slug == "cases" && p.Brand == "Voltix" && price >= 1000 && price <= 4000 && p.InStock() {
			matching++
		}
	}
	assert.Equal(t, matching, len(got))
}
