package cli

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetfab/nestd/internal/model"
)

// cutlistMapping maps semantic column roles to their indices.
type cutlistMapping struct {
	Ref      int
	File     int
	Quantity int
}

// cutlistAliases maps canonical column names to accepted header spellings
// (all lowercase).
var cutlistAliases = map[string][]string{
	"ref":      {"ref", "ref_id", "refid", "reference", "part", "part id", "name", "label"},
	"file":     {"file", "file_key", "filename", "dxf", "drawing", "path"},
	"quantity": {"quantity", "qty", "count", "num", "pcs", "pieces"},
}

// readCutlist reads a cutlist from a CSV or Excel file. Each row names a
// DXF drawing and the quantity to nest. The ref column is optional; it
// defaults to the file name without extension.
func readCutlist(path string) ([]model.Item, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		rows, err = cutlistExcelRows(path)
	default:
		rows, err = cutlistCSVRows(path)
	}
	if err != nil {
		return nil, err
	}
	return cutlistItems(rows)
}

func cutlistCSVRows(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cutlist: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("cutlist %s is empty", path)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse cutlist: %w", err)
	}
	return rows, nil
}

func cutlistExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open cutlist: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("cutlist %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read cutlist: %w", err)
	}
	return rows, nil
}

// detectDelimiter picks the delimiter producing the most consistent
// multi-column split across lines. Comma, semicolon, tab, and pipe are
// tried.
func detectDelimiter(data []byte) rune {
	best := ','
	bestScore := 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil || len(records) == 0 {
			continue
		}
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}
		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			best = delim
		}
	}
	return best
}

// detectCutlistColumns matches a header row case-insensitively against
// the known aliases. Without a recognizable header the mapping is
// positional: file, quantity, ref.
func detectCutlistColumns(row []string) (cutlistMapping, bool) {
	mapping := cutlistMapping{Ref: -1, File: -1, Quantity: -1}
	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range cutlistAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "ref":
					if mapping.Ref == -1 {
						mapping.Ref = i
					}
				case "file":
					if mapping.File == -1 {
						mapping.File = i
					}
				case "quantity":
					if mapping.Quantity == -1 {
						mapping.Quantity = i
					}
				}
			}
		}
	}
	if !isHeader {
		return cutlistMapping{File: 0, Quantity: 1, Ref: 2}, false
	}
	return mapping, true
}

func cutlistCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cutlistItems(rows [][]string) ([]model.Item, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cutlist has no rows")
	}

	mapping, hasHeader := detectCutlistColumns(rows[0])
	start := 0
	if hasHeader {
		start = 1
		if mapping.File == -1 {
			return nil, fmt.Errorf("cutlist header has no file column")
		}
		if mapping.Quantity == -1 {
			return nil, fmt.Errorf("cutlist header has no quantity column")
		}
	}

	var items []model.Item
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		line := i + 1

		file := cutlistCell(row, mapping.File)
		if file == "" {
			return nil, fmt.Errorf("line %d: missing file", line)
		}
		qtyStr := cutlistCell(row, mapping.Quantity)
		if qtyStr == "" {
			return nil, fmt.Errorf("line %d: missing quantity", line)
		}
		qty, err := strconv.Atoi(qtyStr)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("line %d: invalid quantity %q", line, qtyStr)
		}

		ref := cutlistCell(row, mapping.Ref)
		if ref == "" {
			ref = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}

		items = append(items, model.Item{RefID: ref, FileKey: file, Quantity: qty})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cutlist has no usable rows")
	}
	return items, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
