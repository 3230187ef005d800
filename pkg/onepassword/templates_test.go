package onepassword

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginTemplateURL(t *testing.T) {
	tmpl := LoginTemplate("site", "u", "p", "https://a.example.com", "", "")
	require.Len(t, tmpl.URLs, 1)
	require.Equal(t, "https://a.example.com", tmpl.URLs[0].Href)
	require.True(t, tmpl.URLs[0].Primary)
}

func TestLoginTemplateURLPlaceholder(t *testing.T) {
	// A login without a URL still gets a urls block, carrying the placeholder.
	tmpl := LoginTemplate("site", "u", "p", "", "", "")
	require.Len(t, tmpl.URLs, 1)
	require.Equal(t, "no URL", tmpl.URLs[0].Href)
}

func TestLoginTemplateOmitsEmptyOTP(t *testing.T) {
	tmpl := LoginTemplate("site", "u", "p", "", "", "")
	for _, f := range tmpl.Fields {
		require.NotEqual(t, "OTP", f.Type)
	}
}
