package mapping

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ErrLegacyWorkbook is returned for .xls files, which have no reader here.
var ErrLegacyWorkbook = errors.New("legacy .xls workbooks are not supported, save as .xlsx")

// row holds the recognized columns of one input record. Columns without a
// field here are reported by the decoder as unused and become meta.
type row struct {
	Device      string `csv:"device"`
	Name        string `csv:"name"`
	Address     string `csv:"address"`
	DType       string `csv:"dtype"`
	Scale       string `csv:"scale"`
	Offset      string `csv:"offset"`
	Unit        string `csv:"unit"`
	RW          string `csv:"rw"`
	Function    string `csv:"function"`
	ByteOrder   string `csv:"byte_order"`
	WordOrder   string `csv:"word_order"`
	Description string `csv:"description"`
}

func (r *row) optional() map[string]string {
	return map[string]string{
		domain.FieldUnit:        r.Unit,
		domain.FieldRW:          r.RW,
		domain.FieldFunction:    r.Function,
		domain.FieldByteOrder:   r.ByteOrder,
		domain.FieldWordOrder:   r.WordOrder,
		domain.FieldDescription: r.Description,
	}
}

// IsSpreadsheet reports whether path is routed to the workbook reader.
func IsSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

// IsMappingFile reports whether LoadMapping can read path.
func IsMappingFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// LoadMapping reads a CSV or Excel mapping file into a spec. Either every row
// is valid and the full spec is returned, or nothing is.
func LoadMapping(path string) (_ *domain.MapSpec, err error) {
	if IsSpreadsheet(path) {
		return loadSpreadsheet(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.FileAccessError{Op: "open", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	comma := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		comma = '\t'
	}

	return ParseCSV(f, comma)
}

// ParseCSV decodes delimited text whose first record is the header.
func ParseCSV(r io.Reader, comma rune) (*domain.MapSpec, error) {
	return parse(newCSVRecords(r, comma))
}

func loadSpreadsheet(path string) (_ *domain.MapSpec, err error) {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return nil, &domain.FileAccessError{Op: "read", Path: path, Err: ErrLegacyWorkbook}
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &domain.FileAccessError{Op: "open", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, wb.Close()) }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.FileAccessError{Op: "read", Path: path, Err: errors.New("workbook has no sheets")}
	}

	rows, err := wb.Rows(sheets[0])
	if err != nil {
		return nil, &domain.FileAccessError{Op: "read", Path: path, Err: err}
	}
	defer func() { err = errors.Join(err, rows.Close()) }()

	return parse(newSheetRecords(rows))
}

func parse(src *records) (*domain.MapSpec, error) {
	raw, err := src.header()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewMissingColumnsError(domain.RequiredFields)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header, err := normalizeHeader(raw)
	if err != nil {
		return nil, err
	}

	if err := checkRequired(header); err != nil {
		return nil, err
	}

	dec, err := csvutil.NewDecoder(src, header...)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	columns := make(map[string]struct{}, len(header))
	for _, name := range header {
		columns[name] = struct{}{}
	}

	spec := &domain.MapSpec{}
	for {
		var r row

		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode mapping record: %w", err)
		}

		fields := candidate(&r, columns)
		fields[domain.FieldMeta] = meta(header, dec.Record(), dec.Unused())

		entry, err := domain.NewEntry(fields)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				verr.Row = src.Row()
			}
			return nil, err
		}

		spec.Entries = append(spec.Entries, entry)
	}

	return spec, nil
}

// candidate builds the raw field map for one record. Required fields are
// always present. Optional fields only when the column exists and the cell
// is not blank.
func candidate(r *row, columns map[string]struct{}) map[string]any {
	fields := map[string]any{
		domain.FieldDevice:  strings.TrimSpace(r.Device),
		domain.FieldName:    strings.TrimSpace(r.Name),
		domain.FieldAddress: strings.TrimSpace(r.Address),
		domain.FieldDType:   strings.ToUpper(strings.TrimSpace(r.DType)),
		domain.FieldScale:   numberOr(r.Scale, domain.DefaultScale),
		domain.FieldOffset:  numberOr(r.Offset, domain.DefaultOffset),
	}

	for field, value := range r.optional() {
		if _, ok := columns[field]; !ok {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			fields[field] = v
		}
	}

	return fields
}

func numberOr(cell string, fallback float64) any {
	if v := strings.TrimSpace(cell); v != "" {
		return v
	}
	return fallback
}

// meta captures non-blank cells of unrecognized columns verbatim.
func meta(header, record []string, unused []int) map[string]any {
	m := make(map[string]any, len(unused))
	for _, i := range unused {
		if strings.TrimSpace(record[i]) == "" {
			continue
		}
		m[header[i]] = record[i]
	}
	return m
}
