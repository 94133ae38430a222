package emit

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
)

// Default artifact names used by EmitAll.
const (
	PythonFile  = "python_map.py"
	CHeaderFile = "mapping.h"
	DefsFile    = "defs.txt"
)

const (
	pythonTemplate  = "python_map.py.tmpl"
	cHeaderTemplate = "mapping.h.tmpl"
	defsTemplate    = "defs.txt.tmpl"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"))

var ErrDuplicateSymbol = errors.New("duplicate symbol")

// DuplicateSymbolError reports two entries that map to the same C identifier
// even after address disambiguation, or an entry whose identifier is a macro
// the header itself defines.
type DuplicateSymbolError struct {
	Symbol string
	// First and Second are 1-based entry positions. Second is 0 when
	// Symbol clashes with a header macro.
	First, Second int
}

func (e *DuplicateSymbolError) Error() string {
	if e.Second == 0 {
		return fmt.Sprintf("entry #%d maps to symbol %s, which the header reserves", e.First, e.Symbol)
	}
	return fmt.Sprintf("entries #%d and #%d both map to symbol %s", e.First, e.Second, e.Symbol)
}

func (e *DuplicateSymbolError) Is(target error) bool {
	return target == ErrDuplicateSymbol
}

func RenderPython(spec *domain.MapSpec) ([]byte, error) {
	return render(pythonTemplate, spec)
}

// headerEntry is an entry with its collision-free C identifier.
type headerEntry struct {
	domain.MapEntry
	Ident string
}

// RenderCHeader fails with *DuplicateSymbolError before rendering anything
// if two entries cannot be given distinct identifiers.
func RenderCHeader(spec *domain.MapSpec, guard string) ([]byte, error) {
	idents, err := Identifiers(spec, guard)
	if err != nil {
		return nil, err
	}

	entries := make([]headerEntry, len(spec.Entries))
	for i, e := range spec.Entries {
		entries[i] = headerEntry{MapEntry: e, Ident: idents[i]}
	}

	return render(cHeaderTemplate, struct {
		Guard   string
		Entries []headerEntry
	}{
		Guard:   guard,
		Entries: entries,
	})
}

func RenderDefs(spec *domain.MapSpec) ([]byte, error) {
	return render(defsTemplate, struct {
		Groups []domain.DeviceGroup
	}{
		Groups: spec.ByDevice(),
	})
}

func EmitPython(spec *domain.MapSpec, path string) error {
	data, err := RenderPython(spec)
	if err != nil {
		return err
	}
	return outfile.Write(path, data)
}

func EmitCHeader(spec *domain.MapSpec, path string) error {
	data, err := RenderCHeader(spec, includeGuard(path))
	if err != nil {
		return err
	}
	return outfile.Write(path, data)
}

func EmitDefs(spec *domain.MapSpec, path string) error {
	data, err := RenderDefs(spec)
	if err != nil {
		return err
	}
	return outfile.Write(path, data)
}

// Artifacts renders the three artifacts under their default names in dir
// without writing anything.
func Artifacts(spec *domain.MapSpec, dir string) ([]outfile.File, error) {
	python, err := RenderPython(spec)
	if err != nil {
		return nil, err
	}

	header, err := RenderCHeader(spec, includeGuard(CHeaderFile))
	if err != nil {
		return nil, err
	}

	defs, err := RenderDefs(spec)
	if err != nil {
		return nil, err
	}

	return []outfile.File{
		{Path: filepath.Join(dir, PythonFile), Data: python},
		{Path: filepath.Join(dir, CHeaderFile), Data: header},
		{Path: filepath.Join(dir, DefsFile), Data: defs},
	}, nil
}

// EmitAll renders the three artifacts into dir under their default names.
// Nothing is written unless all of them render, and all of them are staged
// before any destination is replaced.
func EmitAll(spec *domain.MapSpec, dir string) ([]string, error) {
	files, err := Artifacts(spec, dir)
	if err != nil {
		return nil, err
	}

	if err := outfile.MkdirAll(dir); err != nil {
		return nil, err
	}

	if err := outfile.WriteAll(files...); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	return paths, nil
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// headerMacros are the fixed macros of mapping.h.tmpl.
var headerMacros = []string{"MODBUS_FUNC_HR", "MODBUS_FUNC_IR", "MODBUS_MAP_ENTRY_COUNT"}

// stdintMacro matches the limit and constant macros of <stdint.h>.
var stdintMacro = regexp.MustCompile(`^(U?INT(MAX|PTR|(_LEAST|_FAST)?(8|16|32|64))_(MIN|MAX|C)|(PTRDIFF|SIG_ATOMIC|WCHAR|WINT)_(MIN|MAX)|SIZE_MAX)$`)

// Identifiers returns the C identifier of every entry, in entry order.
// Entries sharing DEVICE_NAME are all suffixed with their address. Entries
// that still collide after that, or that hit a header macro, the default
// include guard or one of reserved, are reported.
func Identifiers(spec *domain.MapSpec, reserved ...string) ([]string, error) {
	macros := make(map[string]struct{}, len(headerMacros)+len(reserved)+1)
	for _, m := range slices.Concat(headerMacros, []string{includeGuard(CHeaderFile)}, reserved) {
		macros[m] = struct{}{}
	}

	counts := make(map[string]int, len(spec.Entries))
	for _, e := range spec.Entries {
		counts[e.Symbol()]++
	}

	idents := make([]string, len(spec.Entries))
	seen := make(map[string]int, len(spec.Entries))

	for i, e := range spec.Entries {
		ident := e.Symbol()
		if counts[ident] > 1 {
			ident += "_" + strconv.Itoa(e.Address)
		}

		if _, ok := macros[ident]; ok || stdintMacro.MatchString(ident) {
			return nil, &DuplicateSymbolError{Symbol: ident, First: i + 1}
		}
		if first, ok := seen[ident]; ok {
			return nil, &DuplicateSymbolError{Symbol: ident, First: first + 1, Second: i + 1}
		}
		seen[ident] = i
		idents[i] = ident
	}

	return idents, nil
}

// includeGuard turns mapping.h into MAPPING_H.
func includeGuard(path string) string {
	base := filepath.Base(path)
	guard := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, base)

	if guard == "" || (guard[0] >= '0' && guard[0] <= '9') {
		guard = "_" + guard
	}
	return guard
}
