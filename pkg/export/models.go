package export

import "fmt"

// Category of a source record after classification.
type Category string

const (
	CategoryLogin       Category = "Login"
	CategorySecureNote  Category = "Secure Note"
	CategoryCreditCard  Category = "Credit Card"
	CategoryBankAccount Category = "Bank Account"
)

// Source exporters, used to tag imported items with their provenance.
const (
	SourceKeeper   = "Keeper"
	SourceLastPass = "LastPass"
)

// PermissionGrant is one access grant on a source shared folder. Grants
// without explicit flags inherit the folder defaults during parsing, so the
// flags here are always fully resolved.
type PermissionGrant struct {
	Name          string
	IsGroup       bool
	ManageUsers   bool
	ManageRecords bool
}

// SharedFolder is a source-system folder with explicit per-subject grants.
type SharedFolder struct {
	Path          string
	ManageUsers   bool
	ManageRecords bool
	Permissions   []PermissionGrant
}

// Attachment references a blob in the export's content-addressed file store.
// Name may be empty, in which case the UID doubles as the filename stem.
type Attachment struct {
	FileUID string
	Name    string
	MIME    string
}

// Record is one credential from the source export.
type Record struct {
	Title    string
	Login    string
	Password string
	LoginURL string
	Notes    string
	// OTPAuth holds an otpauth:// URI or a bare TOTP secret, if the source
	// carried one.
	OTPAuth string
	// SharedFolders and Folders hold raw folder references as they appear in
	// the export; canonical vault names are derived later by the resolver.
	SharedFolders []string
	Folders       []string
	Category      Category
	// NoteFields holds the key:value pairs parsed out of a structured
	// "NoteType:" notes blob. Nil unless Category is CreditCard or BankAccount.
	NoteFields  map[string]string
	Attachments []Attachment
	// Source names the exporter the record came from.
	Source string
}

// MalformedExportError reports an export document that cannot be parsed,
// naming the field or location that is missing or invalid.
type MalformedExportError struct {
	Field  string
	Reason string
}

func (e *MalformedExportError) Error() string {
	return fmt.Sprintf("malformed export: %s: %s", e.Field, e.Reason)
}
