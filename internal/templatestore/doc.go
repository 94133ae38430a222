// Package templatestore keeps reusable Excel mapping workbooks in a local
// directory so they can be cloned as the starting point of new mapping files.
//
// Workbooks are copied into the store root under their slug. A SQLite catalog
// (catalog.db in the same root) records the slug, the display name the
// template was stored with and when it was stored. The catalog schema is
// applied with embedded migrations every time the store is opened.
//
// The root defaults to ~/.modbus_map_maker/templates and can be moved with
// the MODBUS_MAP_MAKER_TEMPLATE_DIR environment variable.
package templatestore
