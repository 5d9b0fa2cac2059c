package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIngredients(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []ParsedIngredient
		errors []string
	}{
		{
			name:  "two entries",
			input: "Tomato:500:g;Onion:1:unit",
			want: []ParsedIngredient{
				{Name: "Tomato", Quantity: 500, Unit: "g"},
				{Name: "Onion", Quantity: 1, Unit: "unit"},
			},
		},
		{
			name:  "whitespace and empty segments",
			input: "  Olive Oil : 0.25 : l ;; ;Salt:2:pinch;",
			want: []ParsedIngredient{
				{Name: "Olive Oil", Quantity: 0.25, Unit: "l"},
				{Name: "Salt", Quantity: 2, Unit: "pinch"},
			},
		},
		{
			name:   "no colons",
			input:  "BadEntry",
			errors: []string{"malformed entry: 'BadEntry', expected Name:Quantity:Unit"},
		},
		{
			name:   "too many parts",
			input:  "Rice:1:cup:extra",
			errors: []string{"malformed entry: 'Rice:1:cup:extra', expected Name:Quantity:Unit"},
		},
		{
			name:  "bad quantities do not block other entries",
			input: "Egg:abc:unit;Milk:0:ml;Sugar:-1:g;Flour:200:g;Butter:NaN:g;Yeast:Inf:g",
			want:  []ParsedIngredient{{Name: "Flour", Quantity: 200, Unit: "g"}},
			errors: []string{
				"invalid quantity 'abc' for ingredient 'Egg'",
				"invalid quantity '0' for ingredient 'Milk'",
				"invalid quantity '-1' for ingredient 'Sugar'",
				"invalid quantity 'NaN' for ingredient 'Butter'",
				"invalid quantity 'Inf' for ingredient 'Yeast'",
			},
		},
		{
			name:  "empty",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := ParseIngredients(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.errors, errs)
		})
	}
}

func TestParseIngredientsIsDeterministic(t *testing.T) {
	input := "Tomato:500:g;Bad;Onion:x:unit;Garlic:2:clove"
	firstParsed, firstErrs := ParseIngredients(input)
	for i := 0; i < 5; i++ {
		parsed, errs := ParseIngredients(input)
		assert.Equal(t, firstParsed, parsed)
		assert.Equal(t, firstErrs, errs)
	}
}

func TestParseNonNegativeInt(t *testing.T) {
	for _, ok := range []string{"0", "15", "5.0", " 30 "} {
		_, valid := parseNonNegativeInt(ok)
		assert.True(t, valid, ok)
	}
	for _, bad := range []string{"-5", "1.5", "abc", "NaN", "Inf", ""} {
		_, valid := parseNonNegativeInt(bad)
		assert.False(t, valid, bad)
	}
}
