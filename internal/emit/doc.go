// Package emit renders a MapSpec into generated source artifacts.
//
// Rendering uses text/template with templates embedded in the binary and is
// deterministic: the same spec always yields byte-identical output. Each
// artifact is rendered fully in memory and then written atomically.
//
// Artifacts:
//   - python_map.py: MODBUS_MAP, one dict per entry in entry order
//   - mapping.h: one modbus_reg_t record per entry and a modbus_map_t
//     values struct with native member types
//   - defs.txt: semicolon separated definitions grouped by device in
//     first-seen order
package emit
