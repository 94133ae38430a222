package mapping

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const byteOrderMark = "\ufeff"

// records adapts a raw row source to csvutil.Reader. Every data record is
// padded to the header width and blank records are skipped, so that CSV and
// spreadsheet input reach the decoder in the same shape.
type records struct {
	next  func() ([]string, error)
	width int
	row   int
}

// newCSVRecords drops the byte order mark that "CSV UTF-8" exports put in
// front of the header.
func newCSVRecords(r io.Reader, comma rune) *records {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(len(byteOrderMark)); err == nil && string(lead) == byteOrderMark {
		_, _ = br.Discard(len(byteOrderMark))
	}

	reader := csv.NewReader(br)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	return &records{next: reader.Read}
}

// newSheetRecords reads stored cell values. Number formats only affect how a
// cell is displayed, so a scale of 0.125 shown as 0.13 is still 0.125.
func newSheetRecords(rows *excelize.Rows) *records {
	return &records{next: func() ([]string, error) {
		if !rows.Next() {
			if err := rows.Error(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		return rows.Columns(excelize.Options{RawCellValue: true})
	}}
}

// header reads the first record and fixes the width of the following ones.
func (r *records) header() ([]string, error) {
	for {
		record, err := r.next()
		if err != nil {
			return nil, err
		}
		if blank(record) {
			continue
		}
		r.width = len(record)
		return record, nil
	}
}

// Read implements csvutil.Reader.
func (r *records) Read() ([]string, error) {
	for {
		record, err := r.next()
		if err != nil {
			return nil, err
		}
		r.row++

		if blank(record) {
			continue
		}

		if len(record) > r.width {
			if !blank(record[r.width:]) {
				return nil, fmt.Errorf("row %d: expected %d fields, got %d", r.row, r.width, len(record))
			}
			record = record[:r.width]
		}

		for len(record) < r.width {
			record = append(record, "")
		}

		return record, nil
	}
}

// Row is the 1-based data row of the last record returned by Read.
func (r *records) Row() int {
	return r.row
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
