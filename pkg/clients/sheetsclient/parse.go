package sheetsclient

import "fmt"

// fieldIndexes maps each required column name to its position in the
// header row, erroring on any missing column.
func fieldIndexes(headerRow []interface{}, fields []string) (map[string]int, error) {
	indexes := make(map[string]int, len(fields))
	for _, field := range fields {
		index := -1
		for i, cell := range headerRow {
			if cellStr, ok := cell.(string); ok && cellStr == field {
				index = i
				break
			}
		}
		if index == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		indexes[field] = index
	}
	return indexes, nil
}

// cellValue returns the string value of the named column in a row, or ""
// when the row is short or the cell is not a string.
func cellValue(indexes map[string]int, field string, row []interface{}) string {
	index, ok := indexes[field]
	if !ok || index >= len(row) {
		return ""
	}
	if str, ok := row[index].(string); ok {
		return str
	}
	return ""
}
