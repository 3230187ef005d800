package migrate

import (
	"context"
	"fmt"
	"os"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/conductorone/keeper-migrate/pkg/export"
)

// Run is the explicit context object for one migration: configuration, the
// target-system client, the shared vault-name cache, and run-wide tallies.
// Nothing in the pipeline reaches for process-global state.
type Run struct {
	cfg    Config
	client TargetClient

	trace      *Trace
	report     *Report
	resolver   *Resolver
	translator *Translator
}

func New(cfg Config, client TargetClient) *Run {
	trace := &Trace{}
	report := &Report{}
	return &Run{
		cfg:        cfg,
		client:     client,
		trace:      trace,
		report:     report,
		resolver:   NewResolver(client, cfg, trace, report),
		translator: NewTranslator(client, cfg, trace, report),
	}
}

// Trace returns the dry-run trace of planned mutations.
func (r *Run) Trace() *Trace { return r.trace }

// Report returns the run-wide tallies.
func (r *Run) Report() *Report { return r.report }

// Execute drives the whole pipeline: parse, vault topology, permission
// grants, item batches, batch execution, final report. Only an unparsable
// export or unreachable target system aborts the run; everything else is
// accumulated and reported.
func (r *Run) Execute(ctx context.Context) (*Report, error) {
	l := ctxzap.Extract(ctx)

	if _, err := r.client.GetSignedInAccount(ctx); err != nil {
		return nil, fmt.Errorf("target system unavailable: %w", err)
	}

	container, err := export.OpenContainer(r.cfg.Input)
	if err != nil {
		return nil, err
	}
	defer container.Close()

	folders, records, err := export.Parse(ctx, container.Data)
	if err != nil {
		return nil, err
	}
	l.Info("loaded export",
		zap.String("input", r.cfg.Input),
		zap.Int("shared_folders", len(folders)),
		zap.Int("records", len(records)),
	)

	if container.Blobs != nil && r.cfg.ScratchDir == "" {
		scratch, err := os.MkdirTemp("", "keeper-migrate-")
		if err != nil {
			return nil, fmt.Errorf("creating scratch dir: %w", err)
		}
		r.cfg.ScratchDir = scratch
	}

	r.resolveTopology(ctx, folders, records)

	builder := NewBuilder(r.cfg, r.resolver, container.Blobs, r.report)
	batches, order := builder.Build(ctx, records)

	executor := NewExecutor(r.client, r.cfg, r.trace, r.report)
	executor.Execute(ctx, batches, order)

	r.report.Log(ctx)
	return r.report, nil
}

// resolveTopology creates (or confirms) every destination vault up front and
// issues permission grants: shared folders carry their own grant lists,
// private and default vaults optionally get the operator-specified owner with
// a fixed editing-tier grant. Resolution failures are recorded; the affected
// items are skipped later when the builder hits the cached failure.
func (r *Run) resolveTopology(ctx context.Context, folders []export.SharedFolder, records []export.Record) {
	l := ctxzap.Extract(ctx)

	for _, sf := range folders {
		name := CanonicalVaultName(sf.Path)
		vaultID, err := r.resolver.Resolve(ctx, name, KindShared)
		if err != nil {
			l.Warn("shared folder vault unavailable, its items will be skipped",
				zap.String("vault", name),
				zap.Error(err),
			)
			continue
		}
		for _, grant := range sf.Permissions {
			r.translator.Grant(ctx, vaultID, name, grant.Name, grant.IsGroup, grant.ManageUsers, grant.ManageRecords)
		}
	}

	privateFolders := mapset.NewSet[string]()
	for _, rec := range records {
		for _, ref := range rec.Folders {
			privateFolders.Add(ref)
		}
	}
	sortedPrivate := privateFolders.ToSlice()
	sort.Strings(sortedPrivate)

	for _, ref := range sortedPrivate {
		name := r.cfg.PrivatePrefix + CanonicalVaultName(ref)
		vaultID, err := r.resolver.Resolve(ctx, name, KindPrivate)
		if err != nil {
			l.Warn("private folder vault unavailable, its items will be skipped",
				zap.String("vault", name),
				zap.Error(err),
			)
			continue
		}
		r.grantOwner(ctx, vaultID, name)
	}

	vaultID, err := r.resolver.Resolve(ctx, r.cfg.DefaultVault, KindDefault)
	if err != nil {
		l.Warn("default vault unavailable, folderless items will be skipped",
			zap.String("vault", r.cfg.DefaultVault),
			zap.Error(err),
		)
		return
	}
	r.grantOwner(ctx, vaultID, r.cfg.DefaultVault)
}

func (r *Run) grantOwner(ctx context.Context, vaultID, vaultName string) {
	if r.cfg.UserForPrivate == "" {
		return
	}
	// Fixed editing tier: manage_records without manage_users.
	r.translator.Grant(ctx, vaultID, vaultName, r.cfg.UserForPrivate, false, false, true)
}
