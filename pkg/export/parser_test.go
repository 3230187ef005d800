package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const keeperFixture = `{
  "shared_folders": [
    {
      "path": "Eng\\Secrets",
      "manage_users": false,
      "manage_records": true,
      "permissions": [
        {"name": "alice@example.com", "manage_users": true, "manage_records": true},
        {"name": "Engineering"},
        {"name": "bob@example.com", "manage_records": false}
      ]
    }
  ],
  "records": [
    {
      "$type": "login",
      "title": "Build server",
      "login": "admin",
      "password": "hunter2",
      "login_url": "https://ci.example.com",
      "notes": "root account",
      "custom_fields": {"TFC:Keeper": "otpauth://totp/ci?secret=ABC123"},
      "folders": [
        {"shared_folder": "Eng\\Secrets", "can_edit": true, "can_share": false},
        {"folder": "My Stuff"}
      ],
      "attachments": [
        {"file_uid": "u1", "name": "id_rsa", "mime": "application/octet-stream"},
        {"file_uid": "", "name": "ignored"}
      ]
    },
    {
      "title": "",
      "notes": "just a note"
    }
  ]
}`

func TestParseJSON(t *testing.T) {
	ctx := context.Background()

	folders, records, err := ParseJSON(ctx, []byte(keeperFixture))
	require.NoError(t, err)

	require.Len(t, folders, 1)
	sf := folders[0]
	require.Equal(t, `Eng\Secrets`, sf.Path)
	require.False(t, sf.ManageUsers)
	require.True(t, sf.ManageRecords)

	require.Len(t, sf.Permissions, 3)
	require.Equal(t, "alice@example.com", sf.Permissions[0].Name)
	require.False(t, sf.Permissions[0].IsGroup)
	require.True(t, sf.Permissions[0].ManageUsers)

	// No explicit flags: inherits the folder defaults.
	require.Equal(t, "Engineering", sf.Permissions[1].Name)
	require.True(t, sf.Permissions[1].IsGroup)
	require.False(t, sf.Permissions[1].ManageUsers)
	require.True(t, sf.Permissions[1].ManageRecords)

	// Explicit flag overrides the default.
	require.False(t, sf.Permissions[2].ManageRecords)

	require.Len(t, records, 2)
	login := records[0]
	require.Equal(t, CategoryLogin, login.Category)
	require.Equal(t, "Build server", login.Title)
	require.Equal(t, "otpauth://totp/ci?secret=ABC123", login.OTPAuth)
	require.Equal(t, []string{`Eng\Secrets`}, login.SharedFolders)
	require.Equal(t, []string{"My Stuff"}, login.Folders)
	require.Len(t, login.Attachments, 1)
	require.Equal(t, "u1", login.Attachments[0].FileUID)
	require.Equal(t, SourceKeeper, login.Source)

	note := records[1]
	require.Equal(t, CategorySecureNote, note.Category)
	require.Equal(t, "Untitled", note.Title)
}

func TestParseJSONMalformed(t *testing.T) {
	_, _, err := ParseJSON(context.Background(), []byte("not json"))
	var malformed *MalformedExportError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "document", malformed.Field)
}

func TestParseCSVWebExporter(t *testing.T) {
	csv := "url,username,password,totp,extra,name,grouping,fav\n" +
		"https://a.example.com,alice,pw1,JBSWY3DP,some notes,Site A,Shared-Eng,0\n" +
		"http://sn,,,,Plain note body,My Note,,0\n"

	folders, records, err := ParseCSV(context.Background(), []byte(csv))
	require.NoError(t, err)
	require.Empty(t, folders)
	require.Len(t, records, 2)

	login := records[0]
	require.Equal(t, CategoryLogin, login.Category)
	require.Equal(t, "Site A", login.Title)
	require.Equal(t, "JBSWY3DP", login.OTPAuth)
	require.Equal(t, []string{"Shared-Eng"}, login.SharedFolders)
	require.Equal(t, SourceLastPass, login.Source)

	note := records[1]
	require.Equal(t, CategorySecureNote, note.Category)
	require.Empty(t, note.LoginURL)
	require.Equal(t, "Plain note body", note.Notes)
	require.Empty(t, note.SharedFolders)
}

func TestParseCSVCliExporter(t *testing.T) {
	csv := "url,username,password,extra,name,grouping,fav\n" +
		"https://b.example.com,bob,pw2,notes here,Site B,Personal,0\n"

	_, records, err := ParseCSV(context.Background(), []byte(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Empty(t, records[0].OTPAuth)
	require.Equal(t, "notes here", records[0].Notes)
	require.Equal(t, []string{"Personal"}, records[0].SharedFolders)
}

func TestParseCSVShortRow(t *testing.T) {
	csv := "url,username,password,extra,name,grouping\nhttps://x,only,three\n"
	_, _, err := ParseCSV(context.Background(), []byte(csv))
	var malformed *MalformedExportError
	require.ErrorAs(t, err, &malformed)
}

func TestParseDispatch(t *testing.T) {
	_, records, err := Parse(context.Background(), []byte("  \n"+keeperFixture))
	require.NoError(t, err)
	require.Len(t, records, 2)

	_, records, err = Parse(context.Background(), []byte("url,username,password,extra,name,grouping\n"))
	require.NoError(t, err)
	require.Empty(t, records)

	// A byte-order mark ahead of the document must not confuse dispatch.
	_, records, err = Parse(context.Background(), []byte("\xEF\xBB\xBF"+keeperFixture))
	require.NoError(t, err)
	require.Len(t, records, 2)
}
