// Package record holds the contact record carried by a distribution entry and
// the validator that turns a parsed row into one.
package record

import "strings"

// Column names expected in the header row of an upload.
const (
	FieldFirstName = "firstName"
	FieldPhone     = "phone"
	FieldNotes     = "notes"
)

type Record struct {
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// Validate keeps a row only when firstName and phone are both non-empty after
// trimming. Notes defaults to "".
func Validate(row map[string]string) (Record, bool) {
	firstName := lookup(row, FieldFirstName)
	phone := lookup(row, FieldPhone)
	if firstName == "" || phone == "" {
		return Record{}, false
	}
	return Record{
		FirstName: firstName,
		Phone:     phone,
		Notes:     lookup(row, FieldNotes),
	}, true
}

// lookup prefers the exact column name and falls back to a case-insensitive
// match, so spreadsheet exports with "FirstName" or "PHONE" headers still work.
func lookup(row map[string]string, field string) string {
	if v, ok := row[field]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range row {
		if strings.EqualFold(strings.TrimSpace(k), field) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
