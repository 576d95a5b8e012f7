package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/hupe1980/colormatch/catalog"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	labelStyle = lipgloss.NewStyle().Bold(true).Width(14)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// write renders v in the structured formats. It reports false for table
// output, which each command renders itself.
func (a *app) write(w io.Writer, v any) (bool, error) {
	switch a.output {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to format output: %w", err)
		}
		_, err = w.Write(data)
		return true, err
	case "table", "":
		return false, nil
	default:
		return true, fmt.Errorf("unsupported output format: %s", a.output)
	}
}

// swatch renders a block in the record's colour, with text in the shade
// its display hint asks for.
func swatch(rec catalog.Record, text string) string {
	fg := lipgloss.Color("#000000")
	if rec.LightText {
		fg = lipgloss.Color("#ffffff")
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hexColor(rec.R, rec.G, rec.B))).
		Foreground(fg).
		Padding(0, 2).
		Render(text)
}

func hexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// table renders label/value rows.
func table(title string, rows [][2]string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteByte('\n')
	for _, row := range rows {
		sb.WriteString(labelStyle.Render(row[0]))
		sb.WriteString(row[1])
		sb.WriteByte('\n')
	}
	return sb.String()
}
