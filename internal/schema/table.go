package schema

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"blockpad/internal/domain"
)

// fallbackColumns is the row width used when a grid has no rows yet.
const fallbackColumns = 3

// AddRow returns a copy of grid with one empty row appended.
func AddRow(grid [][]string) [][]string {
	cols := fallbackColumns
	if len(grid) > 0 && len(grid[0]) > 0 {
		cols = len(grid[0])
	}
	out := domain.CloneGrid(grid)
	if out == nil {
		out = [][]string{}
	}
	return append(out, make([]string, cols))
}

// AddColumn returns a copy of grid with one empty cell appended to every row.
func AddColumn(grid [][]string) [][]string {
	out := domain.CloneGrid(grid)
	for i := range out {
		out[i] = append(out[i], "")
	}
	return out
}

// SetCell returns a copy of grid with cell (row, col) set to value.
func SetCell(grid [][]string, row, col int, value string) ([][]string, error) {
	if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
		return nil, &domain.ValidationError{
			Field: "table",
			Err:   fmt.Errorf("cell (%d, %d) is outside a %s grid", row, col, dims(grid)),
		}
	}
	out := domain.CloneGrid(grid)
	out[row][col] = value
	return out, nil
}

// ValidateTable rejects grids that are empty or not rectangular.
func ValidateTable(grid [][]string) error {
	err := validation.Validate(grid,
		validation.Required.Error("table needs at least one row"),
		validation.By(func(value any) error {
			g, _ := value.([][]string)
			width := len(g[0])
			if width == 0 {
				return validation.NewError("table_no_columns", "table needs at least one column")
			}
			for i, row := range g {
				if len(row) != width {
					return validation.NewError("table_ragged",
						fmt.Sprintf("row %d has %d cells, expected %d", i, len(row), width))
				}
			}
			return nil
		}),
	)
	if err != nil {
		return &domain.ValidationError{Field: "table", Err: err}
	}
	return nil
}

func dims(grid [][]string) string {
	if len(grid) == 0 {
		return "0x0"
	}
	return fmt.Sprintf("%dx%d", len(grid), len(grid[0]))
}
