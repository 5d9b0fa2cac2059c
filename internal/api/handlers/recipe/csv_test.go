package recipe

import (
	"strings"
	"testing"

	"recipe-importer/internal/core/catalog"
	recipeService "recipe-importer/internal/core/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSV(t *testing.T) {
	input := "\ufeffName, INGREDIENTSSTRING ,Instructions,prepTime,Notes,DietaryTags,imageUrl\n" +
		"Tomato Soup,Tomato:500:g;Onion:1:unit,\"Boil, then blend.\",20,ignored,\"vegan, quick\",https://example.com/soup.jpg\n" +
		",,,\n" +
		"Short Row,Tomato:1:g\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, recipeService.ImportRow{
		Name:              "Tomato Soup",
		IngredientsString: "Tomato:500:g;Onion:1:unit",
		Instructions:      "Boil, then blend.",
		PrepTime:          "20",
		DietaryTags:       "vegan, quick",
		ImageURL:          "https://example.com/soup.jpg",
		Line:              2,
	}, rows[0])
	assert.Equal(t, recipeService.ImportRow{Name: "Short Row", IngredientsString: "Tomato:1:g", Line: 4}, rows[1])
}

func TestDecodeCSVErrors(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""))
	assert.EqualError(t, err, "csv file is empty")

	_, err = DecodeCSV(strings.NewReader("foo,bar\n1,2\n"))
	assert.EqualError(t, err, "csv header has no recognised columns")

	_, err = DecodeCSV(strings.NewReader("name,instructions\n\"unterminated,x\n"))
	assert.Error(t, err)
}

func TestDecodeCSVHeaderOnly(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader("name,instructions,ingredientsString\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestDecodeCSVKeepsFileLineAfterBlankRows(t *testing.T) {
	input := "name,instructions,ingredientsString\n" +
		"Soup,Boil it.,Tomato:1:g\n" +
		"\n" +
		",,\n" +
		",\"Multi\nline\",Tomato:1:g\n" +
		",Bake it.,Tomato:1:g\n"

	rows, err := DecodeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, 7, rows[2].Line)

	idx := catalog.BuildIndex([]catalog.Entry{{ID: "t", Name: "Tomato", CostPerUnit: 0.01, BaseUnit: "g"}}, catalog.DuplicateLastWins)
	outcome := recipeService.EvaluateRow(2, rows[2], idx)
	assert.Equal(t, "Row 7", outcome.Label)
}
