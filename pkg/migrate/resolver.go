package migrate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// VaultKind classifies a destination vault by how its name was derived.
type VaultKind int

const (
	KindShared VaultKind = iota
	KindPrivate
	KindDefault
)

func (k VaultKind) String() string {
	switch k {
	case KindPrivate:
		return "private"
	case KindDefault:
		return "default"
	default:
		return "shared"
	}
}

// VaultPlan is one planned destination vault. ResolvedID is populated once the
// vault is confirmed to exist, or holds a stable placeholder in dry-run mode.
type VaultPlan struct {
	TargetName string
	Kind       VaultKind
	ResolvedID string
	// Created reports whether this run created the vault (false when it
	// pre-existed or the run is a dry run).
	Created bool
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CanonicalVaultName derives the target vault name from a source folder path:
// backslashes become slashes, whitespace runs collapse to a single space, and
// segments are trimmed, so paths differing only in separator style or
// whitespace normalize identically and resolve to the same vault.
func CanonicalVaultName(path string) string {
	name := strings.ReplaceAll(path, `\`, "/")
	name = whitespaceRun.ReplaceAllString(name, " ")
	segments := strings.Split(name, "/")
	kept := segments[:0]
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, "/")
}

// Resolver memoizes vault-name resolution for the whole run. Resolution of a
// given name is serialized so concurrent requests for the same destination
// cannot race into duplicate creation.
type Resolver struct {
	client      TargetClient
	callTimeout time.Duration
	dryRun      bool
	trace       *Trace
	report      *Report

	mu     sync.Mutex
	plans  map[string]*VaultPlan
	failed map[string]error
}

func NewResolver(client TargetClient, cfg Config, trace *Trace, report *Report) *Resolver {
	return &Resolver{
		client:      client,
		callTimeout: cfg.CallTimeout,
		dryRun:      cfg.DryRun,
		trace:       trace,
		report:      report,
		plans:       make(map[string]*VaultPlan),
		failed:      make(map[string]error),
	}
}

// Resolve returns the target vault id for a canonical vault name, creating the
// vault when it does not exist. A creation failure is remembered and returned
// for every later resolution of the same name, so each item destined for that
// vault is skipped without retrying the create.
func (r *Resolver) Resolve(ctx context.Context, name string, kind VaultKind) (string, error) {
	l := ctxzap.Extract(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if plan, ok := r.plans[name]; ok {
		return plan.ResolvedID, nil
	}
	if err, ok := r.failed[name]; ok {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	existing, err := r.client.FindVaultByName(callCtx, name)
	if err != nil {
		err = fmt.Errorf("looking up vault %q: %w", name, err)
		r.failed[name] = err
		return "", err
	}
	if existing != nil {
		l.Info("vault exists", zap.String("vault", name), zap.String("vault_id", existing.ID))
		r.plans[name] = &VaultPlan{TargetName: name, Kind: kind, ResolvedID: existing.ID}
		r.report.AddVaultReused()
		return existing.ID, nil
	}

	if r.dryRun {
		l.Info("would create vault", zap.String("vault", name), zap.String("kind", kind.String()))
		r.trace.Add("create vault %q", name)
		id := placeholderID(name)
		r.plans[name] = &VaultPlan{TargetName: name, Kind: kind, ResolvedID: id}
		r.report.AddVaultCreated()
		return id, nil
	}

	created, err := r.client.CreateVault(callCtx, name)
	if err != nil {
		err = fmt.Errorf("creating vault %q: %w", name, err)
		r.failed[name] = err
		return "", err
	}
	l.Info("created vault", zap.String("vault", name), zap.String("vault_id", created.ID))
	r.plans[name] = &VaultPlan{TargetName: name, Kind: kind, ResolvedID: created.ID, Created: true}
	r.report.AddVaultCreated()
	return created.ID, nil
}

// NameFor returns the canonical vault name behind a resolved id, for
// reporting.
func (r *Resolver) NameFor(vaultID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, plan := range r.plans {
		if plan.ResolvedID == vaultID {
			return name
		}
	}
	return vaultID
}

// placeholderID is the stable dry-run stand-in for a vault id, distinguishable
// from real ids but usable by every downstream code path.
func placeholderID(name string) string {
	return "dry-run:" + name
}
