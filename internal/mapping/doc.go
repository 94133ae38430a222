// Package mapping ingests tabular Modbus register maps.
//
// Input is either delimited text (CSV, or TSV by extension) or the first
// sheet of an .xlsx workbook. The first non-blank record is the header.
// Header cells are trimmed and lower-cased before any lookup, the required
// columns are checked before any data row is read, and each row is decoded
// and passed through domain.NewEntry. Cells of columns that are not entry
// fields are carried verbatim into the entry meta.
package mapping
