package mapping

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a mapping table from disk, selecting the format by file
// extension. An empty path returns the built-in default.
func Load(path string) (Table, error) {
	if path == "" {
		return Default(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("mapping: unsupported file type %q", path)
	}
}

// LoadYAML reads a table from a YAML document of the shape
// "Canonical Name: [raw, names]".
func LoadYAML(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapping: read %s", path)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrapf(err, "mapping: parse %s", path)
	}
	return t, nil
}

// LoadXLSX reads a table from the first sheet of a workbook: column A
// holds the canonical name, column B the raw name, one pair per row.
// The first row is treated as a header and skipped.
func LoadXLSX(path string) (Table, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapping: open %s", path)
	}
	if len(wb.Sheets) == 0 {
		return nil, eris.Errorf("mapping: %s has no sheets", path)
	}

	t := make(Table)
	for i, row := range wb.Sheets[0].Rows {
		if i == 0 || len(row.Cells) < 2 {
			continue
		}
		standard := strings.TrimSpace(row.Cells[0].String())
		raw := strings.TrimSpace(row.Cells[1].String())
		if standard == "" || raw == "" {
			continue
		}
		t[standard] = append(t[standard], raw)
	}
	return t, nil
}
