// Package tabular turns an uploaded CSV or XLSX file into a pull-based
// sequence of rows keyed by the header row.
//
// Legacy binary .xls workbooks are not parsed. Browsers label both .csv and
// .xls files application/vnd.ms-excel, so a file with that type is sniffed:
// delimited text is read as CSV, a zip is read as XLSX, and an OLE2 workbook is
// rejected with ErrLegacyWorkbook.
package tabular

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/alanyang/agentflow/internal/domain/apperr"
)

type Kind int

const (
	KindCSV Kind = iota + 1
	KindXLSX
)

func (k Kind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

const (
	mimeCSV    = "text/csv"
	mimeAppCSV = "application/csv"
	mimeExcel  = "application/vnd.ms-excel"
	mimeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	utf8BOM    = "\ufeff"
	sniffLen   = 8
)

var (
	ErrUnsupportedType = apperr.Validation("Please upload a valid CSV, XLS, or XLSX file")
	ErrParse           = apperr.Validation("File could not be parsed as CSV or XLSX")
	ErrLegacyWorkbook  = apperr.Validation("Legacy .xls workbooks are not supported; save the file as .xlsx or .csv")

	// ErrMalformedRow is matched by every *MalformedRowError.
	ErrMalformedRow = errors.New("malformed row")
)

// MalformedRowError is returned by Next for a row that could not be split. The
// reader stays usable; callers skip the row. Lines is the number of physical
// lines the row consumed: an unterminated opening quote swallows every line up
// to the end of the file, and each of those lines counts as a rejected row.
type MalformedRowError struct {
	Line  int
	Lines int
	Err   error
}

func (e *MalformedRowError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed row: %v", e.Err)
	}
	if e.Lines > 1 {
		return fmt.Sprintf("malformed row at line %d spanning %d lines: %v", e.Line, e.Lines, e.Err)
	}
	return fmt.Sprintf("malformed row at line %d: %v", e.Line, e.Err)
}

func (e *MalformedRowError) Is(target error) bool { return target == ErrMalformedRow }

func (e *MalformedRowError) Unwrap() error { return e.Err }

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic = []byte("PK\x03\x04")
)

// Row maps header column name to cell value. Columns missing from a short row
// are absent; cells beyond the header are dropped.
type Row map[string]string

// RowReader yields rows until io.EOF.
type RowReader interface {
	Next() (Row, error)
	Close() error
}

// DetectKind maps the declared content type (and, for the ambiguous Excel
// type, the file extension) to a parser.
func DetectKind(contentType, fileName string) (Kind, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return 0, fmt.Errorf("%w: content type %q", ErrUnsupportedType, contentType)
	}
	ext := strings.ToLower(filepath.Ext(fileName))

	switch mediaType {
	case mimeCSV, mimeAppCSV:
		return KindCSV, nil
	case mimeXLSX:
		return KindXLSX, nil
	case mimeExcel:
		if ext == ".xlsx" {
			return KindXLSX, nil
		}
		return KindCSV, nil
	}
	return 0, fmt.Errorf("%w: content type %q", ErrUnsupportedType, mediaType)
}

// Open reads the header row and returns a reader positioned at the first data
// row. The leading bytes decide the format when they disagree with kind.
func Open(r io.Reader, kind Kind) (RowReader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(sniffLen)
	if len(head) == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	switch {
	case bytes.HasPrefix(head, oleMagic):
		return nil, ErrLegacyWorkbook
	case bytes.HasPrefix(head, zipMagic):
		x, err := openXLSX(br)
		if err != nil {
			return nil, err
		}
		return x, nil
	case kind == KindXLSX:
		return nil, fmt.Errorf("%w: declared xlsx but content is not a workbook", ErrParse)
	}

	c, err := openCSV(br)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func cleanHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		header[i] = strings.TrimSpace(c)
	}
	return header
}

func toRow(header, cells []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		if name == "" || i >= len(cells) {
			continue
		}
		if _, dup := row[name]; dup {
			continue
		}
		row[name] = cells[i]
	}
	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
