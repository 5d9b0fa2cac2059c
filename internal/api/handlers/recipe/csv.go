package recipe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	recipeService "recipe-importer/internal/core/recipe"
)

// csvColumns 標題（不分大小寫）對應到 ImportRow 欄位
var csvColumns = map[string]func(*recipeService.ImportRow, string){
	"name":              func(r *recipeService.ImportRow, v string) { r.Name = v },
	"category":          func(r *recipeService.ImportRow, v string) { r.Category = v },
	"preptime":          func(r *recipeService.ImportRow, v string) { r.PrepTime = recipeService.FieldValue(v) },
	"cuisine":           func(r *recipeService.ImportRow, v string) { r.Cuisine = v },
	"instructions":      func(r *recipeService.ImportRow, v string) { r.Instructions = v },
	"imageurl":          func(r *recipeService.ImportRow, v string) { r.ImageURL = v },
	"dietarytags":       func(r *recipeService.ImportRow, v string) { r.DietaryTags = v },
	"ingredientsstring": func(r *recipeService.ImportRow, v string) { r.IngredientsString = v },
}

// DecodeCSV 讀取第一列為標題的 CSV；未知欄位忽略，空白列跳過但保留每列的檔案列號
func DecodeCSV(r io.Reader) ([]recipeService.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	setters := make([]func(*recipeService.ImportRow, string), len(header))
	known := 0
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if set, ok := csvColumns[strings.ToLower(strings.TrimSpace(col))]; ok {
			setters[i] = set
			known++
		}
	}
	if known == 0 {
		return nil, errors.New("csv header has no recognised columns")
	}

	rows := []recipeService.ImportRow{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if blankRecord(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row := recipeService.ImportRow{Line: line}
		for i, v := range record {
			if i < len(setters) && setters[i] != nil {
				setters[i](&row, v)
			}
		}
		rows = append(rows, row)
	}
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
