package migrate

import (
	"context"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Failure is one non-fatal problem recorded during the run, with enough
// detail for manual remediation.
type Failure struct {
	Kind    string
	Vault   string
	Subject string
	Item    string
	Err     string
}

// Report accumulates run-wide tallies. It is shared across goroutines once
// chunk execution fans out, so all mutation goes through the locked methods.
type Report struct {
	mu sync.Mutex

	VaultsCreated int
	VaultsReused  int

	GrantsIssued  int
	GrantsSkipped int

	ItemsCreated int
	ItemsFailed  int
	ItemsSkipped int

	// RecordsWithoutFolder counts records that matched zero folders.
	// RecordsUnresolvedFolder counts records whose folder references were all
	// malformed (empty after normalization); both land in the default vault
	// but the causes are distinct.
	RecordsWithoutFolder    int
	RecordsUnresolvedFolder int

	Failures []Failure
}

func (r *Report) AddVaultCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.VaultsCreated++
}

func (r *Report) AddVaultReused() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.VaultsReused++
}

func (r *Report) AddGrantIssued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GrantsIssued++
}

func (r *Report) AddGrantSkipped(vault, subject, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GrantsSkipped++
	r.Failures = append(r.Failures, Failure{Kind: "grant", Vault: vault, Subject: subject, Err: reason})
}

func (r *Report) AddItemCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ItemsCreated++
}

func (r *Report) AddItemFailed(vault, item, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ItemsFailed++
	r.Failures = append(r.Failures, Failure{Kind: "item", Vault: vault, Item: item, Err: reason})
}

func (r *Report) AddItemSkipped(vault, item, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ItemsSkipped++
	r.Failures = append(r.Failures, Failure{Kind: "item", Vault: vault, Item: item, Err: reason})
}

func (r *Report) AddRecordWithoutFolder() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecordsWithoutFolder++
}

func (r *Report) AddRecordUnresolvedFolder() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RecordsUnresolvedFolder++
}

// Log emits the final per-run summary and every accumulated failure.
func (r *Report) Log(ctx context.Context) {
	l := ctxzap.Extract(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	l.Info("migration summary",
		zap.Int("vaults_created", r.VaultsCreated),
		zap.Int("vaults_reused", r.VaultsReused),
		zap.Int("grants_issued", r.GrantsIssued),
		zap.Int("grants_skipped", r.GrantsSkipped),
		zap.Int("items_created", r.ItemsCreated),
		zap.Int("items_failed", r.ItemsFailed),
		zap.Int("items_skipped", r.ItemsSkipped),
		zap.Int("records_without_folder", r.RecordsWithoutFolder),
		zap.Int("records_unresolved_folder", r.RecordsUnresolvedFolder),
	)

	for _, f := range r.Failures {
		l.Warn("unresolved failure",
			zap.String("kind", f.Kind),
			zap.String("vault", f.Vault),
			zap.String("subject", f.Subject),
			zap.String("item", f.Item),
			zap.String("error", f.Err),
		)
	}
}
