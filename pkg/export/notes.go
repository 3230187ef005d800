package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const noteTypePrefix = "NoteType:"

// noteTypeCategories are the structured note subtypes we know how to map onto
// target item templates. Anything else stays an opaque secure note.
var noteTypeCategories = map[string]Category{
	"Credit Card":  CategoryCreditCard,
	"Bank Account": CategoryBankAccount,
}

// classifyNote decides the category of a non-login record. Notes beginning
// with a NoteType: marker carry key:value pairs, one per line; a parse failure
// degrades the record to an opaque secure note instead of failing the run.
func classifyNote(ctx context.Context, title, notes string) (Category, map[string]string) {
	if !strings.HasPrefix(notes, noteTypePrefix) {
		return CategorySecureNote, nil
	}

	fields, err := parseNoteFields(notes)
	if err != nil {
		ctxzap.Extract(ctx).Warn("failed to parse structured note, keeping as secure note",
			zap.String("title", title),
			zap.Error(err),
		)
		return CategorySecureNote, nil
	}

	category, ok := noteTypeCategories[fields["NoteType"]]
	if !ok {
		return CategorySecureNote, nil
	}
	return category, fields
}

func parseNoteFields(notes string) (map[string]string, error) {
	fields := make(map[string]string)
	for _, line := range strings.Split(notes, "\n") {
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("line %q is not a key:value pair", line)
		}
		fields[key] = value
	}
	return fields, nil
}

var monthNumbers = map[string]string{
	"January":   "01",
	"February":  "02",
	"March":     "03",
	"April":     "04",
	"May":       "05",
	"June":      "06",
	"July":      "07",
	"August":    "08",
	"September": "09",
	"October":   "10",
	"November":  "11",
	"December":  "12",
}

// MonthYear converts a LastPass "Month,YYYY" date into the target system's
// YYYYMM month/year value. Unrecognized input is passed through untouched.
func MonthYear(value string) string {
	month, year, found := strings.Cut(value, ",")
	if !found {
		return value
	}
	num, ok := monthNumbers[strings.TrimSpace(month)]
	if !ok {
		return value
	}
	return strings.TrimSpace(year) + num
}
