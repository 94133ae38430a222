package report_generator

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/kurochkinivan/modbus_map_maker/internal/infrastructure/outfile"
)

const (
	titleHeight = 12
	metaHeight  = 6
	rowHeight   = 6
)

// Grid widths of the register table, summing to maroto's 12 columns.
var columns = []struct {
	title string
	size  int
	value func(e domain.MapEntry) string
}{
	{"Name", 3, func(e domain.MapEntry) string { return e.Name }},
	{"Addr", 1, func(e domain.MapEntry) string { return strconv.Itoa(e.Address) }},
	{"Type", 2, func(e domain.MapEntry) string { return string(e.DType) }},
	{"Fn", 1, func(e domain.MapEntry) string { return string(e.Function) }},
	{"RW", 1, func(e domain.MapEntry) string { return string(e.RW) }},
	{"Scale", 1, func(e domain.MapEntry) string { return formatFloat(e.Scale) }},
	{"Offset", 1, func(e domain.MapEntry) string { return formatFloat(e.Offset) }},
	{"Unit", 2, func(e domain.MapEntry) string {
		if e.Unit == nil {
			return "-"
		}
		return *e.Unit
	}},
}

type Generator struct {
	now func() time.Time
}

func New() *Generator {
	return &Generator{now: time.Now}
}

// GenerateReport renders the register table of one device into a PDF at
// outputPath.
func (g *Generator) GenerateReport(outputPath, device, sourceFile string, entries []domain.MapEntry) error {
	cfg := config.NewBuilder().
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		Build()

	m := maroto.New(cfg)

	m.AddRows(
		text.NewRow(titleHeight, "Modbus register map: "+device, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
		text.NewRow(metaHeight, "Source: "+sourceFile, props.Text{Size: 9}),
		text.NewRow(metaHeight, fmt.Sprintf("Registers: %d, generated %s",
			len(entries), g.now().Format(time.RFC3339)), props.Text{Size: 9}),
	)

	m.AddRows(headerRow())
	for _, e := range entries {
		m.AddRows(entryRow(e))
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate pdf: %w", err)
	}

	return outfile.Write(outputPath, doc.GetBytes())
}

func headerRow() core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, text.NewCol(c.size, c.title, props.Text{
			Top:   1,
			Size:  9,
			Style: fontstyle.Bold,
		}))
	}
	return row.New(rowHeight).Add(cols...)
}

func entryRow(e domain.MapEntry) core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, text.NewCol(c.size, c.value(e), props.Text{Top: 1, Size: 8}))
	}
	return row.New(rowHeight).Add(cols...)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FileName returns a file name for the report of device, with path
// separators and other unsafe characters replaced. A replaced name carries a
// hash of device, so "A/B" and "A_B" get different files.
func FileName(device string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, device)

	if name != device {
		h := fnv.New32a()
		_, _ = h.Write([]byte(device))
		name = fmt.Sprintf("%s_%08x", name, h.Sum32())
	}

	if strings.Trim(name, ".") == "" {
		name = "_" + name
	}

	return name + ".pdf"
}
