// Package output renders a query result in one of eight tabular
// encodings. Every mode shares the same input shape and the same
// NULL-substitution rule: the engine always stringifies SQL NULL to the
// literal "NULL", and the formatter is the single place that literal is
// replaced with the user's configured null-display string.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dbshell/rsqlite3/internal/clistate"
	"github.com/dbshell/rsqlite3/internal/engine"
)

const nullLiteral = "NULL"

const maxTableColumnWidth = 50

// Format renders result according to the mode and display settings in
// state, returning the assembled buffer with a single trailing newline
// trimmed.
func Format(result *engine.QueryResult, state *clistate.State) (string, error) {
	switch state.Mode {
	case clistate.ModeList:
		return formatList(result, state), nil
	case clistate.ModeCSV:
		return formatCSV(result, state)
	case clistate.ModeColumn:
		return formatColumn(result, state), nil
	case clistate.ModeLine:
		return formatLine(result, state), nil
	case clistate.ModeJSON:
		return formatJSON(result, state)
	case clistate.ModeJSONL:
		return formatJSONL(result, state)
	case clistate.ModeTable:
		return formatTable(result, state), nil
	case clistate.ModeMarkdown:
		return formatMarkdown(result, state), nil
	default:
		return formatList(result, state), nil
	}
}

func displayValue(cell, nullValue string) string {
	if cell == nullLiteral {
		return nullValue
	}
	return cell
}

func formatList(result *engine.QueryResult, state *clistate.State) string {
	var b strings.Builder
	if state.Headers {
		b.WriteString(strings.Join(result.Columns, state.Separator))
		b.WriteString("\n")
	}
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = displayValue(cell, state.NullValue)
		}
		b.WriteString(strings.Join(cells, state.Separator))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatCSV(result *engine.QueryResult, state *clistate.State) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if state.Headers {
		if err := w.Write(result.Columns); err != nil {
			return "", err
		}
	}
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = displayValue(cell, state.NullValue)
		}
		if err := w.Write(cells); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func columnWidths(result *engine.QueryResult, state *clistate.State) []int {
	widths := make([]int, len(result.Columns))
	for i, h := range result.Columns {
		widths[i] = len(h)
	}
	for _, row := range result.Rows {
		for i, cell := range row {
			v := displayValue(cell, state.NullValue)
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	for i := range widths {
		if w := state.WidthFor(i); w > 0 {
			widths[i] = w
		}
	}
	return widths
}

func formatColumn(result *engine.QueryResult, state *clistate.State) string {
	if len(result.Rows) == 0 {
		return ""
	}
	widths := columnWidths(result, state)

	var b strings.Builder
	if state.Headers {
		writePaddedRow(&b, result.Columns, widths)
		for i, w := range widths {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(strings.Repeat("-", w))
		}
		b.WriteString("\n")
	}
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = displayValue(cell, state.NullValue)
		}
		writePaddedRow(&b, cells, widths)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writePaddedRow(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		w := widths[i]
		content := cell
		if len(content) > w {
			content = content[:w]
		}
		fmt.Fprintf(b, "%-*s", w, content)
	}
	b.WriteString("\n")
}

func formatLine(result *engine.QueryResult, state *clistate.State) string {
	maxColLen := 0
	for _, c := range result.Columns {
		if len(c) > maxColLen {
			maxColLen = len(c)
		}
	}

	var b strings.Builder
	for rowIdx, row := range result.Rows {
		if rowIdx > 0 {
			b.WriteString("\n")
		}
		for i, cell := range row {
			if i >= len(result.Columns) {
				break
			}
			v := displayValue(cell, state.NullValue)
			fmt.Fprintf(&b, "%*s = %s\n", maxColLen, result.Columns[i], v)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// jsonCell renders one value per the mode's null policy: JSON null only
// when the configured null-display string is empty, else that string as
// a JSON string value.
func jsonCell(cell, nullValue string) any {
	if cell != nullLiteral {
		return cell
	}
	if nullValue == "" {
		return nil
	}
	return nullValue
}

func rowsToMaps(result *engine.QueryResult, nullValue string) []map[string]any {
	out := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		obj := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			if i >= len(row) {
				continue
			}
			obj[col] = jsonCell(row[i], nullValue)
		}
		out = append(out, obj)
	}
	return out
}

func formatJSON(result *engine.QueryResult, state *clistate.State) (string, error) {
	rows := rowsToMaps(result, state.NullValue)
	buf, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func formatJSONL(result *engine.QueryResult, state *clistate.State) (string, error) {
	var b strings.Builder
	for _, row := range result.Rows {
		obj := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			if i >= len(row) {
				continue
			}
			obj[col] = jsonCell(row[i], state.NullValue)
		}
		line, err := json.Marshal(obj)
		if err != nil {
			return "", err
		}
		b.Write(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func truncateCell(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return s[:maxWidth]
	}
	return s[:maxWidth-1] + "…"
}

func formatTable(result *engine.QueryResult, state *clistate.State) string {
	if len(result.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(result.Columns))
	for i, h := range result.Columns {
		widths[i] = len(h)
	}
	for _, row := range result.Rows {
		for i, cell := range row {
			v := displayValue(cell, state.NullValue)
			if i < len(widths) && len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	for i := range widths {
		if widths[i] > maxTableColumnWidth {
			widths[i] = maxTableColumnWidth
		}
	}

	var b strings.Builder
	useColor := state.ColorOutput

	headerColor := color.New(color.FgCyan, color.Bold)
	nullColor := color.New(color.FgHiBlack, color.Italic)
	altRowColor := color.New(color.FgWhite, color.Faint)
	footerColor := color.New(color.FgGreen, color.Faint)

	writeBorder(&b, widths, "┌", "┬", "┐")

	if state.Headers {
		b.WriteString("│")
		for i, header := range result.Columns {
			if i > 0 {
				b.WriteString("│")
			}
			truncated := truncateCell(header, widths[i])
			padded := fmt.Sprintf("%-*s", widths[i], truncated)
			if useColor {
				fmt.Fprintf(&b, " %s ", headerColor.Sprint(padded))
			} else {
				fmt.Fprintf(&b, " %s ", padded)
			}
		}
		b.WriteString("│\n")
		writeBorder(&b, widths, "├", "┼", "┤")
	}

	for rowIdx, row := range result.Rows {
		b.WriteString("│")
		for i, cell := range row {
			if i > 0 {
				b.WriteString("│")
			}
			if i >= len(widths) {
				continue
			}
			isNull := cell == nullLiteral
			v := displayValue(cell, state.NullValue)
			truncated := truncateCell(v, widths[i])
			padded := fmt.Sprintf("%-*s", widths[i], truncated)

			switch {
			case useColor && isNull:
				fmt.Fprintf(&b, " %s ", nullColor.Sprint(padded))
			case useColor && rowIdx%2 == 1:
				fmt.Fprintf(&b, " %s ", altRowColor.Sprint(padded))
			default:
				fmt.Fprintf(&b, " %s ", padded)
			}
		}
		b.WriteString("│\n")
	}

	writeBorder(&b, widths, "└", "┴", "┘")
	b.WriteString("\n")

	footer := fmt.Sprintf("(%d row%s)", len(result.Rows), plural(len(result.Rows)))
	if useColor {
		b.WriteString(footerColor.Sprint(footer))
	} else {
		b.WriteString(footer)
	}

	return b.String()
}

func writeBorder(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			b.WriteString(mid)
		}
		b.WriteString(strings.Repeat("─", w+2))
	}
	b.WriteString(right)
	b.WriteString("\n")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func formatMarkdown(result *engine.QueryResult, state *clistate.State) string {
	if len(result.Rows) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("| ")
	b.WriteString(strings.Join(result.Columns, " | "))
	b.WriteString(" |\n|")
	for range result.Columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			v := displayValue(cell, state.NullValue)
			cells[i] = strings.ReplaceAll(v, "|", "\\|")
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}
