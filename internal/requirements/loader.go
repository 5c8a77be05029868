package requirements

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadResult holds a loaded catalog plus any per-row problems. Bad rows
// never abort the load; they are reported and skipped.
type LoadResult struct {
	Catalog  *Catalog
	Errors   []string
	Warnings []string
}

// columnMapping maps dataset column roles to their indices.
type columnMapping struct {
	Type         int
	Function     int
	Volume4      int
	Volume6      int
	VolumeDelta  int
	MinWidth     int
	MinDepth     int
	MinHeight    int
	TypeCrit     int
	FunctionCrit int
}

// headerAliases maps column roles to accepted header spellings, all
// lowercase with whitespace collapsed. The canonical spellings come from
// the published habitability dataset.
var headerAliases = map[string][]string{
	"type":         {"type", "module type", "category"},
	"function":     {"function", "functionality", "sub function"},
	"volume4":      {"volume - 4 crew (m3)", "volume 4 crew", "volume 4", "v4"},
	"volume6":      {"volume - 6 crew (m3)", "volume 6 crew", "volume 6", "v6"},
	"volumedelta":  {"increase in 2 crew (m^3)", "increase in 2 crew (m3)", "volume delta", "delta"},
	"minwidth":     {"min width (m)", "min width", "minimum width"},
	"mindepth":     {"min depth (m)", "min depth", "minimum depth"},
	"minheight":    {"min height (m)", "min height", "minimum height"},
	"typecrit":     {"type criticality", "type crit"},
	"functioncrit": {"function criticality", "function crit", "criticality"},
}

// normalizeHeader collapses newlines and runs of spaces so multi-line
// spreadsheet headers compare cleanly.
func normalizeHeader(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func detectColumns(row []string) (columnMapping, bool) {
	mapping := columnMapping{
		Type: -1, Function: -1,
		Volume4: -1, Volume6: -1, VolumeDelta: -1,
		MinWidth: -1, MinDepth: -1, MinHeight: -1,
		TypeCrit: -1, FunctionCrit: -1,
	}
	found := false
	assign := func(role string, i int) {
		found = true
		switch role {
		case "type":
			if mapping.Type == -1 {
				mapping.Type = i
			}
		case "function":
			if mapping.Function == -1 {
				mapping.Function = i
			}
		case "volume4":
			if mapping.Volume4 == -1 {
				mapping.Volume4 = i
			}
		case "volume6":
			if mapping.Volume6 == -1 {
				mapping.Volume6 = i
			}
		case "volumedelta":
			if mapping.VolumeDelta == -1 {
				mapping.VolumeDelta = i
			}
		case "minwidth":
			if mapping.MinWidth == -1 {
				mapping.MinWidth = i
			}
		case "mindepth":
			if mapping.MinDepth == -1 {
				mapping.MinDepth = i
			}
		case "minheight":
			if mapping.MinHeight == -1 {
				mapping.MinHeight = i
			}
		case "typecrit":
			if mapping.TypeCrit == -1 {
				mapping.TypeCrit = i
			}
		case "functioncrit":
			if mapping.FunctionCrit == -1 {
				mapping.FunctionCrit = i
			}
		}
	}
	for i, cell := range row {
		normalized := normalizeHeader(cell)
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					assign(role, i)
				}
			}
		}
	}
	return mapping, found
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		if f, ok := parseFloat(s); ok {
			return int(f), true
		}
		return 0, false
	}
	return v, true
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// loadFromRows is the shared pipeline for CSV and Excel data. A blank
// Type cell inherits the previous row's type, matching the merged-cell
// layout of the source spreadsheet.
func loadFromRows(rows [][]string, rowPrefix string) LoadResult {
	result := LoadResult{Catalog: NewCatalog(nil)}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "no data rows found")
		return result
	}

	mapping, hasHeader := detectColumns(rows[0])
	if !hasHeader {
		result.Errors = append(result.Errors, "header row with Type and Function columns not found")
		return result
	}
	if mapping.Type == -1 || mapping.Function == -1 {
		result.Errors = append(result.Errors, "required columns not found in header: Type, Function")
		return result
	}

	currentType := ""
	currentTypeCrit := 0
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		typeName := strings.Join(strings.Fields(getCell(row, mapping.Type)), " ")
		if typeName != "" {
			currentType = typeName
			if v, ok := parseInt(getCell(row, mapping.TypeCrit)); ok {
				currentTypeCrit = v
			}
		} else if currentType == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: row before any Type value, skipping", rowLabel))
			continue
		}

		function := strings.Join(strings.Fields(getCell(row, mapping.Function)), " ")
		if function == "" {
			continue
		}

		e := Entry{
			Type:            currentType,
			Function:        function,
			TypeCriticality: currentTypeCrit,
		}
		if v, ok := parseInt(getCell(row, mapping.TypeCrit)); ok {
			e.TypeCriticality = v
		}
		if v, ok := parseInt(getCell(row, mapping.FunctionCrit)); ok {
			e.FunctionCriticality = v
		}

		v4, ok4 := parseFloat(getCell(row, mapping.Volume4))
		if !ok4 && getCell(row, mapping.Volume4) != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: unreadable 4-crew volume %q", rowLabel, getCell(row, mapping.Volume4)))
		}
		e.Volume4 = v4
		if v6, ok := parseFloat(getCell(row, mapping.Volume6)); ok {
			e.Volume6 = v6
		} else {
			e.Volume6 = e.Volume4
		}
		if v, ok := parseFloat(getCell(row, mapping.VolumeDelta)); ok {
			e.VolumeDelta = v
		}
		if v, ok := parseFloat(getCell(row, mapping.MinWidth)); ok {
			e.MinWidth = v
		}
		if v, ok := parseFloat(getCell(row, mapping.MinDepth)); ok {
			e.MinDepth = v
		}
		if v, ok := parseFloat(getCell(row, mapping.MinHeight)); ok {
			e.MinHeight = v
		}

		result.Catalog.add(e)
	}
	return result
}

// LoadCSV loads the requirements dataset from a CSV file. A UTF-8 BOM is
// tolerated.
func LoadCSV(path string) LoadResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{
			Catalog: NewCatalog(nil),
			Errors:  []string{fmt.Sprintf("cannot open file: %v", err)},
		}
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return LoadCSVFromReader(bytes.NewReader(data))
}

// LoadCSVFromReader loads the dataset from an open CSV stream.
func LoadCSVFromReader(r io.Reader) LoadResult {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return LoadResult{
			Catalog: NewCatalog(nil),
			Errors:  []string{fmt.Sprintf("cannot read CSV: %v", err)},
		}
	}
	return loadFromRows(records, "line")
}

// LoadXLSX loads the requirements dataset from the first sheet of an
// Excel workbook.
func LoadXLSX(path string) LoadResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return LoadResult{
			Catalog: NewCatalog(nil),
			Errors:  []string{fmt.Sprintf("cannot open Excel file: %v", err)},
		}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return LoadResult{
			Catalog: NewCatalog(nil),
			Errors:  []string{"Excel file has no sheets"},
		}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return LoadResult{
			Catalog: NewCatalog(nil),
			Errors:  []string{fmt.Sprintf("cannot read Excel data: %v", err)},
		}
	}
	return loadFromRows(rows, "row")
}

// Load picks the loader from the file extension: .xlsx and .xls go
// through Excel, everything else is treated as CSV.
func Load(path string) LoadResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return LoadXLSX(path)
	}
	return LoadCSV(path)
}
