package mapping

import (
	"strconv"
	"strings"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

// NormalizeColumn trims and lower-cases a header so that " Device " and
// "DEVICE" resolve to the same column.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeHeader normalizes every header cell. Unnamed cells get a
// positional name so their values can still land in meta.
func normalizeHeader(raw []string) ([]string, error) {
	header := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, cell := range raw {
		name := NormalizeColumn(cell)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}

		if _, ok := seen[name]; ok {
			return nil, &domain.SchemaError{Reason: "duplicate column", Column: name}
		}
		seen[name] = struct{}{}

		header[i] = name
	}

	return header, nil
}

// checkRequired reports every required column absent from the header,
// in the fixed check order.
func checkRequired(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, name := range header {
		present[name] = struct{}{}
	}

	var missing []string
	for _, col := range domain.RequiredFields {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return domain.NewMissingColumnsError(missing)
	}

	return nil
}
