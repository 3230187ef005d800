package migrate

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/conductorone/keeper-migrate/pkg/onepassword"
)

// Translator maps source grant flags onto target permission tiers and issues
// the grants. A missing subject is never fatal: the grant is skipped with a
// warning and the run continues.
type Translator struct {
	client      TargetClient
	callTimeout time.Duration
	dryRun      bool
	trace       *Trace
	report      *Report
}

func NewTranslator(client TargetClient, cfg Config, trace *Trace, report *Report) *Translator {
	return &Translator{
		client:      client,
		callTimeout: cfg.CallTimeout,
		dryRun:      cfg.DryRun,
		trace:       trace,
		report:      report,
	}
}

// Grant computes the maximal tier implied by the two source flags and issues a
// single grant call carrying that tier's full permission set.
func (t *Translator) Grant(ctx context.Context, vaultID, vaultName, subject string, isGroup bool, manageUsers, manageRecords bool) {
	l := ctxzap.Extract(ctx)

	tier := onepassword.TierFor(manageUsers, manageRecords)
	subjectKind := "user"
	if isGroup {
		subjectKind = "group"
	}

	if t.dryRun {
		l.Info("would grant vault access",
			zap.String("vault", vaultName),
			zap.String(subjectKind, subject),
			zap.String("tier", tier.String()),
		)
		t.trace.Add("grant %s %q %s on vault %q", subjectKind, subject, tier, vaultName)
		t.report.AddGrantIssued()
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
	defer cancel()

	exists, err := t.client.SubjectExists(callCtx, subject, isGroup)
	if err != nil {
		l.Warn("could not verify grant subject, skipping grant",
			zap.String("vault", vaultName),
			zap.String(subjectKind, subject),
			zap.Error(err),
		)
		t.report.AddGrantSkipped(vaultName, subject, err.Error())
		return
	}
	if !exists {
		l.Warn("grant subject not found, skipping grant",
			zap.String("vault", vaultName),
			zap.String(subjectKind, subject),
		)
		t.report.AddGrantSkipped(vaultName, subject, subjectKind+" not found")
		return
	}

	if err := t.client.GrantVaultAccess(callCtx, vaultID, subject, isGroup, tier.Permissions()); err != nil {
		l.Warn("failed to grant vault access",
			zap.String("vault", vaultName),
			zap.String(subjectKind, subject),
			zap.String("tier", tier.String()),
			zap.Error(err),
		)
		t.report.AddGrantSkipped(vaultName, subject, err.Error())
		return
	}

	l.Info("granted vault access",
		zap.String("vault", vaultName),
		zap.String(subjectKind, subject),
		zap.String("tier", tier.String()),
	)
	t.report.AddGrantIssued()
}
