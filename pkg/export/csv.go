package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// secureNoteURL marks a LastPass CSV row as a secure note rather than a login.
const secureNoteURL = "http://sn"

// ParseCSV parses a LastPass CSV export. Two layouts exist: the web exporter
// emits a totp column between password and extra, the lpass CLI does not. The
// layout is selected by inspecting the header row.
func ParseCSV(ctx context.Context, data []byte) ([]SharedFolder, []Record, error) {
	l := ctxzap.Extract(ctx)

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &MalformedExportError{Field: "document", Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, nil, &MalformedExportError{Field: "header", Reason: "empty export"}
	}

	header := rows[0]
	hasTOTP := false
	for _, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "totp") {
			hasTOTP = true
			break
		}
	}

	// url,username,password[,totp],extra,name,grouping
	minColumns := 6
	if hasTOTP {
		minColumns = 7
	}

	var records []Record
	for i, row := range rows[1:] {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < minColumns {
			return nil, nil, &MalformedExportError{
				Field:  fmt.Sprintf("row %d", i+2),
				Reason: fmt.Sprintf("expected at least %d columns, got %d", minColumns, len(row)),
			}
		}

		rec := Record{
			LoginURL: row[0],
			Login:    row[1],
			Password: row[2],
			Source:   SourceLastPass,
		}
		if hasTOTP {
			rec.OTPAuth = row[3]
			rec.Notes = row[4]
			rec.Title = row[5]
			if grouping := row[6]; grouping != "" {
				rec.SharedFolders = []string{grouping}
			}
		} else {
			rec.Notes = row[3]
			rec.Title = row[4]
			if grouping := row[5]; grouping != "" {
				rec.SharedFolders = []string{grouping}
			}
		}
		if rec.Title == "" {
			rec.Title = "Untitled"
		}

		if rec.LoginURL == secureNoteURL {
			rec.LoginURL = ""
			rec.Category, rec.NoteFields = classifyNote(ctx, rec.Title, rec.Notes)
		} else {
			rec.Category = CategoryLogin
		}

		records = append(records, rec)
	}

	l.Debug("parsed lastpass export",
		zap.Bool("web_exporter", hasTOTP),
		zap.Int("records", len(records)),
	)

	// LastPass CSV exports carry no shared-folder permission descriptors.
	return nil, records, nil
}

// Parse inspects raw export bytes and dispatches to the JSON or CSV parser.
func Parse(ctx context.Context, data []byte) ([]SharedFolder, []Record, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\uFEFF'
	})
	if strings.HasPrefix(trimmed, "{") {
		return ParseJSON(ctx, []byte(trimmed))
	}
	return ParseCSV(ctx, []byte(trimmed))
}
