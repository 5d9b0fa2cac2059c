package recipe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	entrySeparator = ";"
	fieldSeparator = ":"
)

// ParseIngredients 解析 "Name:Qty:Unit;Name:Qty:Unit" 格式的食材字串
//
// 純函式：回傳語法正確的項目與每個錯誤項目的訊息，兩者可同時非空。
// 單一錯誤項目不影響同字串中的其他項目。
func ParseIngredients(s string) ([]ParsedIngredient, []string) {
	var (
		parsed []ParsedIngredient
		errs   []string
	)

	for _, segment := range strings.Split(s, entrySeparator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		parts := strings.Split(segment, fieldSeparator)
		if len(parts) != 3 {
			errs = append(errs, fmt.Sprintf("malformed entry: '%s', expected Name:Quantity:Unit", segment))
			continue
		}

		name := strings.TrimSpace(parts[0])
		raw := strings.TrimSpace(parts[1])
		qty, ok := parseQuantity(raw)
		if !ok {
			errs = append(errs, fmt.Sprintf("invalid quantity '%s' for ingredient '%s'", raw, name))
			continue
		}

		parsed = append(parsed, ParsedIngredient{
			Name:     name,
			Quantity: qty,
			Unit:     strings.TrimSpace(parts[2]),
		})
	}

	return parsed, errs
}

// parseQuantity 數量必須是有限且大於 0 的數字
func parseQuantity(raw string) (float64, bool) {
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 0, false
	}
	return q, true
}

// parseNonNegativeInt 解析非負整數，容許 "5.0" 這類整數值
func parseNonNegativeInt(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// formatQuantity 以最短表示輸出數量（500、0.5）
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
