package tabular

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxReader streams the first worksheet of a workbook.
type xlsxReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
}

func openXLSX(r io.Reader) (*xlsxReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	x := &xlsxReader{file: f, rows: rows}
	cells, err := x.nextCells()
	if err != nil {
		x.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrParse)
		}
		return nil, fmt.Errorf("%w: header: %v", ErrParse, err)
	}
	x.header = cleanHeader(cells)
	return x, nil
}

func (x *xlsxReader) Next() (Row, error) {
	cells, err := x.nextCells()
	if err != nil {
		return nil, err
	}
	return toRow(x.header, cells), nil
}

// nextCells skips blank rows; excelize yields them for gaps in the sheet.
func (x *xlsxReader) nextCells() ([]string, error) {
	for x.rows.Next() {
		cells, err := x.rows.Columns()
		if err != nil {
			return nil, &MalformedRowError{Lines: 1, Err: err}
		}
		if blank(cells) {
			continue
		}
		return cells, nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil, io.EOF
}

func (x *xlsxReader) Close() error {
	if err := x.rows.Close(); err != nil {
		x.file.Close()
		return err
	}
	return x.file.Close()
}
