package decode

import (
	"fmt"

	"github.com/JonMunkholm/refdata/internal/schema"
	"github.com/tealeg/xlsx/v3"
)

// decodeXLSX reads the only worksheet of a workbook. Numeric cells become
// float64, boolean cells bool and date-formatted cells time.Time; everything
// else is kept as text.
func decodeXLSX(data []byte) ([]schema.RawRow, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	switch len(f.Sheets) {
	case 0:
		return nil, ErrEmptyFile
	case 1:
	default:
		return nil, ErrMultipleSheets
	}

	var (
		b      rowBuilder
		header = true
		rows   []schema.RawRow
	)
	err = f.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		if header {
			header = false
			return r.ForEachCell(func(c *xlsx.Cell) error {
				col, _ := c.GetCoordinates()
				for len(b.headers) <= col {
					b.headers = append(b.headers, "")
				}
				b.headers[col] = c.Value
				return nil
			})
		}

		row := make(schema.RawRow)
		err := r.ForEachCell(func(c *xlsx.Cell) error {
			col, _ := c.GetCoordinates()
			label, ok := b.label(col)
			if !ok {
				return nil
			}
			v, err := cellValue(c, f.Date1904)
			if err != nil {
				return fmt.Errorf("cell %s: %w", label, err)
			}
			if v != nil {
				row[label] = v
			}
			return nil
		}, xlsx.SkipEmptyCells)
		if err != nil {
			return err
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
		return nil
	}, xlsx.SkipEmptyRows)
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}
	if header {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func cellValue(c *xlsx.Cell, date1904 bool) (any, error) {
	if c.Value == "" {
		return nil, nil
	}
	switch c.Type() {
	case xlsx.CellTypeBool:
		return c.Bool(), nil
	case xlsx.CellTypeDate:
		return c.GetTime(date1904)
	case xlsx.CellTypeNumeric:
		if c.IsTime() {
			return c.GetTime(date1904)
		}
		return c.Float()
	default:
		return c.Value, nil
	}
}
