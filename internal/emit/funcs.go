package emit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

var funcs = template.FuncMap{
	"pyStr":        pyStr,
	"pyOptStr":     pyOptStr,
	"pyFloat":      pyFloat,
	"pyDict":       pyDict,
	"cComment":     cComment,
	"cFloat":       cFloat,
	"writable":     writable,
	"littleEndian": littleEndian,
	"wordSwap":     wordSwap,
	"lower":        strings.ToLower,
	"num":          num,
	"deref":        deref,
	"defs":         defsText,
}

// pyStr renders a Python string literal. Go quoting escapes are a subset of
// what Python accepts.
func pyStr(v any) string {
	return strconv.Quote(fmt.Sprint(v))
}

func pyOptStr(s *string) string {
	if s == nil {
		return "None"
	}
	return pyStr(*s)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// pyFloat keeps a decimal point so integral values stay floats in Python.
func pyFloat(f float64) string {
	s := num(f)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func pyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return pyFloat(t)
	default:
		return pyStr(t)
	}
}

// pyDict renders meta with sorted keys.
func pyDict(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, 0, len(keys))
	for _, k := range keys {
		items = append(items, pyStr(k)+": "+pyValue(m[k]))
	}

	return "{" + strings.Join(items, ", ") + "}"
}

func cComment(s string) string {
	s = strings.ReplaceAll(s, "*/", "* /")
	return strings.Join(strings.Fields(s), " ")
}

func cFloat(f float64) string {
	return pyFloat(f) + "f"
}

func writable(rw domain.Access) int {
	if rw == domain.AccessWrite || rw == domain.AccessReadWrite {
		return 1
	}
	return 0
}

func littleEndian(b domain.ByteOrder) int {
	if b == domain.ByteOrderLittle {
		return 1
	}
	return 0
}

func wordSwap(w domain.WordOrder) int {
	if w == domain.WordOrderSwapped {
		return 1
	}
	return 0
}

var defsEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	"[", `\[`,
	"]", `\]`,
	"\n", `\n`,
	"\r", `\r`,
)

// defsText backslash-escapes the separators of the defs format so a value
// always stays inside its field and line.
func defsText(s string) string {
	return defsEscaper.Replace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
