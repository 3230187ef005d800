package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTranslator(client TargetClient, cfg Config) (*Translator, *Report, *Trace) {
	trace := &Trace{}
	report := &Report{}
	return NewTranslator(client, cfg, trace, report), report, trace
}

func TestGrantIssuesMaximalTier(t *testing.T) {
	client := newFakeClient()
	client.subjects[subjectKey("alice@example.com", false)] = true
	tr, report, _ := newTestTranslator(client, testConfig())

	tr.Grant(context.Background(), "vault-1", "Eng/Secrets", "alice@example.com", false, false, true)

	require.Len(t, client.grants, 1)
	require.Equal(t, []string{"allow_viewing", "allow_editing"}, client.grants[0].Permissions)
	require.Equal(t, 1, report.GrantsIssued)
}

func TestGrantManageUsersImpliesManaging(t *testing.T) {
	client := newFakeClient()
	client.subjects[subjectKey("Engineering", true)] = true
	tr, _, _ := newTestTranslator(client, testConfig())

	// manage_users without manage_records still grants the full managing set.
	tr.Grant(context.Background(), "vault-1", "Eng/Secrets", "Engineering", true, true, false)

	require.Len(t, client.grants, 1)
	require.True(t, client.grants[0].IsGroup)
	require.Equal(t, []string{"allow_viewing", "allow_editing", "allow_managing"}, client.grants[0].Permissions)
}

func TestGrantSkipsMissingSubject(t *testing.T) {
	client := newFakeClient()
	tr, report, _ := newTestTranslator(client, testConfig())

	tr.Grant(context.Background(), "vault-1", "Eng/Secrets", "ghost@example.com", false, false, false)

	require.Empty(t, client.grants)
	require.Equal(t, 1, report.GrantsSkipped)
	require.Len(t, report.Failures, 1)
	require.Equal(t, "ghost@example.com", report.Failures[0].Subject)
	require.Equal(t, "Eng/Secrets", report.Failures[0].Vault)
}

func TestGrantFailureIsNotFatal(t *testing.T) {
	client := newFakeClient()
	client.subjects[subjectKey("alice@example.com", false)] = true
	client.failGrant = errAssert("permission denied")
	tr, report, _ := newTestTranslator(client, testConfig())

	tr.Grant(context.Background(), "vault-1", "Eng/Secrets", "alice@example.com", false, true, true)

	require.Equal(t, 0, report.GrantsIssued)
	require.Equal(t, 1, report.GrantsSkipped)
}

func TestGrantDryRun(t *testing.T) {
	client := newFakeClient()
	cfg := testConfig()
	cfg.DryRun = true
	tr, report, trace := newTestTranslator(client, cfg)

	// Subject existence is not checked in dry-run mode; the grant is planned.
	tr.Grant(context.Background(), "dry-run:Eng/Secrets", "Eng/Secrets", "ghost@example.com", false, false, true)

	require.Empty(t, client.grants)
	require.Equal(t, 1, report.GrantsIssued)
	require.Equal(t, 1, trace.Len())
}

type errAssert string

func (e errAssert) Error() string { return string(e) }
