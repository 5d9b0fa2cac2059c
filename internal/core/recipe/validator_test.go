package recipe

import (
	"math"
	"testing"

	"recipe-importer/internal/core/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soupIndex() *catalog.Index {
	return catalog.BuildIndex(soupCatalog().entries, catalog.DuplicateLastWins)
}

func TestEvaluateRowAcceptsAndCosts(t *testing.T) {
	row := soupRow()
	row.DietaryTags = " vegan, ,gluten-free,"
	row.PrepTime = "20"
	row.IngredientsString = "tomato:500:g;ONION:1:unit"

	out := EvaluateRow(0, row, soupIndex())
	require.True(t, out.Accepted(), out.Errors)

	assert.InDelta(t, 2.8, out.Draft.Cost, 1e-9)
	assert.Equal(t, []string{"vegan", "gluten-free"}, out.Draft.DietaryTags)
	require.NotNil(t, out.Draft.PrepTime)
	assert.Equal(t, 20, *out.Draft.PrepTime)
	assert.Equal(t, []ResolvedIngredient{
		{CatalogID: "ing-tomato", Name: "Tomato", Quantity: 500, Unit: "g"},
		{CatalogID: "ing-onion", Name: "Onion", Quantity: 1, Unit: "unit"},
	}, out.Draft.Ingredients)
	assert.Equal(t, "500g Tomato; 1unit Onion", out.Summary)
}

func TestEvaluateRowMissingIngredientRejectsWholeRow(t *testing.T) {
	idx := catalog.BuildIndex([]catalog.Entry{{ID: "t", Name: "Tomato", CostPerUnit: 0.005}}, catalog.DuplicateLastWins)

	out := EvaluateRow(0, soupRow(), idx)
	assert.False(t, out.Accepted())
	assert.Equal(t, ImportErrorDetail{
		RowIndex:   0,
		RecipeName: "Tomato Soup",
		Errors:     []string{"Ingredient 'Onion' not found in catalog"},
	}, out.Detail())
}

func TestEvaluateRowMalformedIngredientString(t *testing.T) {
	row := soupRow()
	row.IngredientsString = "BadEntry"

	out := EvaluateRow(3, row, soupIndex())
	assert.Equal(t, []string{
		"malformed entry: 'BadEntry', expected Name:Quantity:Unit",
		"no valid ingredients could be parsed",
	}, out.Errors)
	assert.Equal(t, 3, out.Detail().RowIndex)
}

func TestEvaluateRowCollectsAllErrors(t *testing.T) {
	row := ImportRow{
		Name:              "",
		Instructions:      "short",
		ImageURL:          "not a url",
		PrepTime:          "-5",
		IngredientsString: "",
	}

	out := EvaluateRow(4, row, soupIndex())
	assert.Equal(t, "Row 6", out.Label)
	assert.Equal(t, []string{
		"name is required and must be at least 3 characters",
		"instructions are required and must be at least 10 characters",
		"ingredientsString is required",
		"imageUrl must be a valid URL",
		"prepTime must be a non-negative integer",
	}, out.Errors)
}

func TestEvaluateRowMixesScalarAndResolutionErrors(t *testing.T) {
	row := soupRow()
	row.Name = "ab"
	row.IngredientsString = "Tomato:500:g;Garlic:2:clove;Onion:zero:unit"

	out := EvaluateRow(0, row, soupIndex())
	assert.Equal(t, "ab", out.Label)
	assert.Equal(t, []string{
		"name is required and must be at least 3 characters",
		"invalid quantity 'zero' for ingredient 'Onion'",
		"Ingredient 'Garlic' not found in catalog",
	}, out.Errors)
}

func TestEvaluateRowAmbiguousUnderRejectPolicy(t *testing.T) {
	idx := catalog.BuildIndex([]catalog.Entry{
		{ID: "1", Name: "Tomato", CostPerUnit: 0.005},
		{ID: "2", Name: "TOMATO", CostPerUnit: 0.006},
		{ID: "3", Name: "Onion", CostPerUnit: 0.3},
	}, catalog.DuplicateReject)

	out := EvaluateRow(0, soupRow(), idx)
	assert.Equal(t, []string{"Ingredient 'Tomato' matches 2 catalog entries"}, out.Errors)
}

func TestEvaluateRowOptionalFieldsAccepted(t *testing.T) {
	row := soupRow()
	row.ImageURL = "https://example.com/soup.jpg"
	row.PrepTime = ""
	row.Category = "Soup"

	out := EvaluateRow(0, row, soupIndex())
	require.True(t, out.Accepted(), out.Errors)
	assert.Nil(t, out.Draft.PrepTime)
	assert.Equal(t, []string{}, out.Draft.DietaryTags)
	assert.Equal(t, "Soup", out.Draft.Category)
}

func TestEvaluateRowNonFiniteUnitCostCountsAsZero(t *testing.T) {
	idx := catalog.BuildIndex([]catalog.Entry{
		{ID: "1", Name: "Tomato", CostPerUnit: math.NaN()},
		{ID: "2", Name: "Onion", CostPerUnit: 0.3},
	}, catalog.DuplicateLastWins)

	out := EvaluateRow(0, soupRow(), idx)
	require.True(t, out.Accepted())
	assert.InDelta(t, 0.3, out.Draft.Cost, 1e-9)
}

func TestEvaluateRowEmptyCatalog(t *testing.T) {
	out := EvaluateRow(0, soupRow(), catalog.BuildIndex(nil, catalog.DuplicateLastWins))
	assert.Equal(t, []string{
		"Ingredient 'Tomato' not found in catalog",
		"Ingredient 'Onion' not found in catalog",
	}, out.Errors)
}

func TestEvaluateRowNilIndexPanics(t *testing.T) {
	assert.Panics(t, func() { EvaluateRow(0, soupRow(), nil) })
}

func TestCostIsSumOfLines(t *testing.T) {
	lines := []pricedLine{
		{entry: catalog.Entry{ID: "a", Name: "A", CostPerUnit: 1.25}, quantity: 3, unit: "kg"},
		{entry: catalog.Entry{ID: "b", Name: "B", CostPerUnit: 0.1}, quantity: 0.5, unit: "l"},
	}
	got := costLines(lines)
	assert.InDelta(t, 3*1.25+0.5*0.1, got.cost, 1e-9)
	assert.Equal(t, "3kg A; 0.5l B", got.summary)
}

func TestRowLabelPrefersFileLine(t *testing.T) {
	assert.Equal(t, "Row 9", rowLabel(2, ImportRow{Line: 9}))
	assert.Equal(t, "Row 4", rowLabel(2, ImportRow{}))
	assert.Equal(t, "Soup", rowLabel(2, ImportRow{Name: "Soup", Line: 9}))
}
