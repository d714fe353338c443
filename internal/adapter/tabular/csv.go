package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

type csvReader struct {
	cr     *csv.Reader
	header []string
}

func openCSV(r io.Reader) (*csvReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrParse)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: header: %v", ErrParse, err)
		}
		if blank(cells) {
			continue
		}
		return &csvReader{cr: cr, header: cleanHeader(cells)}, nil
	}
}

func (r *csvReader) Next() (Row, error) {
	for {
		cells, err := r.cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &MalformedRowError{Line: pe.StartLine, Lines: pe.Line - pe.StartLine + 1, Err: pe.Err}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if blank(cells) {
			continue
		}
		return toRow(r.header, cells), nil
	}
}

func (r *csvReader) Close() error { return nil }
