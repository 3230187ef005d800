package export

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type keeperExport struct {
	SharedFolders []keeperSharedFolder `json:"shared_folders"`
	Records       []keeperRecord       `json:"records"`
}

type keeperSharedFolder struct {
	Path          string             `json:"path"`
	ManageUsers   bool               `json:"manage_users"`
	ManageRecords bool               `json:"manage_records"`
	Permissions   []keeperPermission `json:"permissions"`
}

type keeperPermission struct {
	Name string `json:"name"`
	// Pointers so an absent flag falls back to the folder default.
	ManageUsers   *bool `json:"manage_users"`
	ManageRecords *bool `json:"manage_records"`
}

type keeperRecord struct {
	Type         string              `json:"$type"`
	Title        string              `json:"title"`
	Login        string              `json:"login"`
	Password     string              `json:"password"`
	LoginURL     string              `json:"login_url"`
	Notes        string              `json:"notes"`
	CustomFields map[string]any     `json:"custom_fields"`
	// Folder entries carry extra keys of mixed types (can_edit, can_share),
	// so the values stay untyped until the path string is extracted.
	Folders     []map[string]any   `json:"folders"`
	Attachments []keeperAttachment `json:"attachments"`
}

type keeperAttachment struct {
	FileUID string `json:"file_uid"`
	Name    string `json:"name"`
	MIME    string `json:"mime"`
}

// ParseJSON parses a Keeper-style JSON export with top-level shared_folders
// and records arrays.
func ParseJSON(ctx context.Context, data []byte) ([]SharedFolder, []Record, error) {
	var doc keeperExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, &MalformedExportError{Field: "document", Reason: err.Error()}
	}

	folders := make([]SharedFolder, 0, len(doc.SharedFolders))
	for _, sf := range doc.SharedFolders {
		folder := SharedFolder{
			Path:          sf.Path,
			ManageUsers:   sf.ManageUsers,
			ManageRecords: sf.ManageRecords,
		}
		for _, p := range sf.Permissions {
			name := strings.TrimSpace(p.Name)
			if name == "" {
				continue
			}
			grant := PermissionGrant{
				Name: name,
				// Group names have no mailbox part.
				IsGroup:       !strings.Contains(name, "@"),
				ManageUsers:   sf.ManageUsers,
				ManageRecords: sf.ManageRecords,
			}
			if p.ManageUsers != nil {
				grant.ManageUsers = *p.ManageUsers
			}
			if p.ManageRecords != nil {
				grant.ManageRecords = *p.ManageRecords
			}
			folder.Permissions = append(folder.Permissions, grant)
		}
		folders = append(folders, folder)
	}

	records := make([]Record, 0, len(doc.Records))
	for _, r := range doc.Records {
		rec := Record{
			Title:    r.Title,
			Login:    r.Login,
			Password: r.Password,
			LoginURL: r.LoginURL,
			Notes:    r.Notes,
			Source:   SourceKeeper,
		}
		if rec.Title == "" {
			rec.Title = "Untitled"
		}
		for _, v := range r.CustomFields {
			if s, ok := v.(string); ok && strings.HasPrefix(s, "otpauth://") {
				rec.OTPAuth = s
				break
			}
		}
		for _, f := range r.Folders {
			if path, ok := f["shared_folder"].(string); ok {
				rec.SharedFolders = append(rec.SharedFolders, path)
			} else if path, ok := f["folder"].(string); ok {
				rec.Folders = append(rec.Folders, path)
			}
		}
		for _, a := range r.Attachments {
			if a.FileUID == "" {
				continue
			}
			rec.Attachments = append(rec.Attachments, Attachment{
				FileUID: a.FileUID,
				Name:    a.Name,
				MIME:    a.MIME,
			})
		}

		if r.Type == "login" || (r.Login != "" && r.Password != "") {
			rec.Category = CategoryLogin
		} else {
			rec.Category, rec.NoteFields = classifyNote(ctx, rec.Title, rec.Notes)
		}

		records = append(records, rec)
	}

	ctxzap.Extract(ctx).Debug("parsed keeper export",
		zap.Int("shared_folders", len(folders)),
		zap.Int("records", len(records)),
	)

	return folders, records, nil
}
