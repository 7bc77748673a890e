// Package country loads the static country list used by the import-duty batch.
package country

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/law-makers/dutyscrape/pkg/models"
)

// whitespace covers ASCII and Unicode space separators plus BOM
var whitespace = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)

// ColumnName converts a country name into its column identifier:
// whitespace runs become a single underscore, then the result is upper cased.
func ColumnName(name string) string {
	return strings.ToUpper(whitespace.ReplaceAllString(name, "_"))
}

// entry mirrors one object of countries.json. Code may be a JSON number or string.
type entry struct {
	Code json.RawMessage `json:"Code"`
	Name string          `json:"Name"`
}

// Parse decodes a countries.json document into descriptors in file order
func Parse(data []byte) ([]models.Country, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse country list: %w", err)
	}

	countries := make([]models.Country, 0, len(entries))
	for i, e := range entries {
		code, err := decodeCode(e.Code)
		if err != nil {
			return nil, fmt.Errorf("country %d: %w", i, err)
		}
		if code == "" {
			return nil, fmt.Errorf("country %d: missing Code", i)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("country %d (%s): missing Name", i, code)
		}
		countries = append(countries, models.Country{
			Code:   code,
			Name:   e.Name,
			Column: ColumnName(e.Name),
		})
	}
	return countries, nil
}

// Load reads and parses the country list at path
func Load(path string) ([]models.Country, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read country list: %w", err)
	}
	return Parse(data)
}

// Filter keeps only countries whose code is listed, preserving list order.
// An empty filter returns the list unchanged.
func Filter(countries []models.Country, codes []string) []models.Country {
	if len(codes) == 0 {
		return countries
	}
	want := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		want[strings.TrimSpace(c)] = struct{}{}
	}
	out := make([]models.Country, 0, len(codes))
	for _, c := range countries {
		if _, ok := want[c.Code]; ok {
			out = append(out, c)
		}
	}
	return out
}

func decodeCode(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid Code: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid Code: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
