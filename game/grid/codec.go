package grid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse reads the newline-separated text format: one row per line, one
// symbol per character. Blank lines and carriage returns are ignored.
func Parse(text string) (*Grid, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	return FromRows(rows)
}

// FromRows builds a grid from row strings.
func FromRows(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyGrid
	}
	cols := len(rows[0])
	g, err := New(len(rows), cols)
	if err != nil {
		return nil, err
	}
	for r, line := range rows {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRows, r, len(line), cols)
		}
		for c := 0; c < len(line); c++ {
			s := Symbol(line[c])
			if !s.Valid() {
				return nil, fmt.Errorf("%w: %q at (%d,%d)", ErrInvalidSymbol, line[c], r, c)
			}
			g.cells[r*cols+c] = s
		}
	}
	return g, nil
}

// Lines returns every row as a string.
func (g *Grid) Lines() []string {
	out := make([]string, g.rows)
	buf := make([]byte, g.cols)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			buf[c] = byte(g.cells[r*g.cols+c])
		}
		out[r] = string(buf)
	}
	return out
}

// String renders the text format, each row terminated by a newline.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.rows * (g.cols + 1))
	for _, line := range g.Lines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// MarshalJSON encodes the grid as an array of rows, each an array of
// one-character strings.
func (g *Grid) MarshalJSON() ([]byte, error) {
	out := make([][]string, g.rows)
	for r := 0; r < g.rows; r++ {
		row := make([]string, g.cols)
		for c := 0; c < g.cols; c++ {
			row[c] = string(rune(g.cells[r*g.cols+c]))
		}
		out[r] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both the array-of-arrays form and the array of row
// strings the solver returns. Row strings lose a trailing carriage return
// and empty rows at the end are dropped.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	rows := make([]string, len(raw))
	for i, item := range raw {
		var line string
		if err := json.Unmarshal(item, &line); err == nil {
			rows[i] = strings.TrimSuffix(line, "\r")
			continue
		}
		var cells []string
		if err := json.Unmarshal(item, &cells); err != nil {
			return fmt.Errorf("grid: row %d: %w", i, err)
		}
		var b strings.Builder
		for c, cell := range cells {
			if len(cell) != 1 {
				return fmt.Errorf("%w: %q at (%d,%d)", ErrInvalidSymbol, cell, i, c)
			}
			b.WriteString(cell)
		}
		rows[i] = b.String()
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	parsed, err := FromRows(rows)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
