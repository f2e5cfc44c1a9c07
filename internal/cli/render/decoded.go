package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
)

// maxValueWidth bounds long calldata in tables; the JSON output keeps it whole
const maxValueWidth = 74

// DecodedCallRenderer prints decoded calldata as a nested table
type DecodedCallRenderer struct {
	out io.Writer
}

// NewDecodedCallRenderer creates a new decoded call renderer
func NewDecodedCallRenderer(out io.Writer) *DecodedCallRenderer {
	return &DecodedCallRenderer{out: out}
}

// Render prints the call signature followed by its arguments
func (r *DecodedCallRenderer) Render(call *models.DecodedCall) error {
	if call == nil {
		return nil
	}

	fmt.Fprintf(r.out, "%s %s\n",
		color.New(color.FgCyan, color.Bold).Sprint(call.Signature),
		color.New(color.Faint).Sprint(FormatValue(call.Selector)),
	)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box = table.BoxStyle{PaddingRight: "   "}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, Colors: text.Colors{text.Faint}},
		{Number: 3, Align: text.AlignLeft},
	})

	appendParams(t, call, 0)
	fmt.Fprintln(r.out, t.Render())
	return nil
}

func appendParams(t table.Writer, call *models.DecodedCall, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range call.Params {
		t.AppendRow(table.Row{indent + p.Name, p.Type, shorten(FormatValue(p.Value), maxValueWidth)})
		if p.Decoded == nil {
			continue
		}
		t.AppendRow(table.Row{
			indent + "  " + color.New(color.FgCyan).Sprint("↳ "+p.Decoded.Signature),
			"",
			FormatValue(p.Decoded.Selector),
		})
		appendParams(t, p.Decoded, depth+2)
	}
}

var _ Renderer[*models.DecodedCall] = (*DecodedCallRenderer)(nil)
