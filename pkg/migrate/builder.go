package migrate

import (
	"context"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/pquerna/otp"
	"go.uber.org/zap"

	"github.com/conductorone/keeper-migrate/pkg/attachment"
	"github.com/conductorone/keeper-migrate/pkg/export"
	"github.com/conductorone/keeper-migrate/pkg/onepassword"
)

// ItemCreateRequest is one planned item creation, immutable once built.
type ItemCreateRequest struct {
	VaultID   string
	VaultName string
	Title     string
	Params    onepassword.ItemCreateParams
}

// Builder converts records into item-creation requests, one per destination
// vault, resolving destinations through the shared resolver and materializing
// attachments from the blob store.
type Builder struct {
	cfg      Config
	resolver *Resolver
	store    export.BlobStore
	report   *Report
}

func NewBuilder(cfg Config, resolver *Resolver, store export.BlobStore, report *Report) *Builder {
	return &Builder{
		cfg:      cfg,
		resolver: resolver,
		store:    store,
		report:   report,
	}
}

type destination struct {
	name string
	kind VaultKind
}

// destinations computes the canonical destination vault names for a record:
// shared-folder refs first, then private-folder refs, falling back to the
// default vault when neither is present. Duplicate references that normalize
// to the same name collapse to one destination; references that normalize to
// nothing are dropped and tallied as unresolved.
func (b *Builder) destinations(ctx context.Context, rec export.Record) []destination {
	seen := mapset.NewThreadUnsafeSet[string]()
	var dests []destination
	dropped := false
	add := func(ref string, canonical string, kind VaultKind) {
		if canonical == "" {
			ctxzap.Extract(ctx).Warn("dropping unresolvable folder reference",
				zap.String("item", rec.Title),
				zap.String("folder", ref),
			)
			dropped = true
			return
		}
		if seen.Add(canonical) {
			dests = append(dests, destination{name: canonical, kind: kind})
		}
	}

	for _, ref := range rec.SharedFolders {
		add(ref, CanonicalVaultName(ref), KindShared)
	}
	for _, ref := range rec.Folders {
		if canonical := CanonicalVaultName(ref); canonical == "" {
			add(ref, "", KindPrivate)
		} else {
			add(ref, b.cfg.PrivatePrefix+canonical, KindPrivate)
		}
	}
	if len(dests) == 0 {
		dests = append(dests, destination{name: b.cfg.DefaultVault, kind: KindDefault})
		if dropped {
			b.report.AddRecordUnresolvedFolder()
		} else {
			b.report.AddRecordWithoutFolder()
		}
	}
	return dests
}

// Build materializes every record into per-vault batches. The returned order
// lists vault ids by first appearance, keeping output deterministic for a
// given input and resolver cache state.
func (b *Builder) Build(ctx context.Context, records []export.Record) (map[string][]ItemCreateRequest, []string) {
	l := ctxzap.Extract(ctx)

	batches := make(map[string][]ItemCreateRequest)
	var order []string

	for _, rec := range records {
		files := attachment.Materialize(ctx, b.store, rec, b.cfg.ScratchDir)
		template := b.buildTemplate(ctx, rec)

		for _, dest := range b.destinations(ctx, rec) {
			vaultID, err := b.resolver.Resolve(ctx, dest.name, dest.kind)
			if err != nil {
				l.Warn("skipping item, destination vault unavailable",
					zap.String("item", rec.Title),
					zap.String("vault", dest.name),
					zap.Error(err),
				)
				b.report.AddItemSkipped(dest.name, rec.Title, err.Error())
				continue
			}

			params := onepassword.ItemCreateParams{Template: template}
			for _, f := range files {
				params.Files = append(params.Files, onepassword.FileAttachment{Name: f.Name, Path: f.Path})
			}

			if _, ok := batches[vaultID]; !ok {
				order = append(order, vaultID)
			}
			batches[vaultID] = append(batches[vaultID], ItemCreateRequest{
				VaultID:   vaultID,
				VaultName: dest.name,
				Title:     rec.Title,
				Params:    params,
			})
		}
	}

	return batches, order
}

func (b *Builder) buildTemplate(ctx context.Context, rec export.Record) onepassword.ItemTemplate {
	tmpl := b.categoryTemplate(ctx, rec)
	if rec.Source != "" {
		// Imported items are tagged with their source exporter.
		tmpl.Tags = []string{rec.Source}
	}
	return tmpl
}

func (b *Builder) categoryTemplate(ctx context.Context, rec export.Record) onepassword.ItemTemplate {
	switch rec.Category {
	case export.CategoryLogin:
		return onepassword.LoginTemplate(
			rec.Title, rec.Login, rec.Password, rec.LoginURL, rec.Notes,
			b.otpValue(ctx, rec),
		)
	case export.CategoryCreditCard:
		if fields, ok := creditCardFields(rec.NoteFields); ok {
			return onepassword.CreditCardTemplate(rec.Title, fields)
		}
		ctxzap.Extract(ctx).Warn("credit card note missing fields, importing as secure note",
			zap.String("item", rec.Title))
		return onepassword.SecureNoteTemplate(rec.Title, noteText(rec))
	case export.CategoryBankAccount:
		if fields, ok := bankAccountFields(rec.NoteFields); ok {
			return onepassword.BankAccountTemplate(rec.Title, fields)
		}
		ctxzap.Extract(ctx).Warn("bank account note missing fields, importing as secure note",
			zap.String("item", rec.Title))
		return onepassword.SecureNoteTemplate(rec.Title, noteText(rec))
	default:
		return onepassword.SecureNoteTemplate(rec.Title, noteText(rec))
	}
}

// otpValue passes the source OTP value through, warning when an otpauth URI
// does not parse rather than dropping it.
func (b *Builder) otpValue(ctx context.Context, rec export.Record) string {
	v := rec.OTPAuth
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "otpauth://") {
		if _, err := otp.NewKeyFromURL(v); err != nil {
			ctxzap.Extract(ctx).Warn("malformed otpauth URI, importing verbatim",
				zap.String("item", rec.Title),
				zap.Error(err),
			)
		}
	}
	return v
}

// noteText is the secure-note body: the raw notes, with the source URL
// appended when the record carried one but the category downgraded to a note.
func noteText(rec export.Record) string {
	notes := rec.Notes
	if rec.LoginURL != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += "URL: " + rec.LoginURL
	}
	return notes
}

func lookupAll(fields map[string]string, keys ...string) ([]string, bool) {
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

func creditCardFields(fields map[string]string) (onepassword.CreditCardFields, bool) {
	v, ok := lookupAll(fields, "Name on Card", "Type", "Number", "Security Code", "Expiration Date", "Start Date")
	if !ok {
		return onepassword.CreditCardFields{}, false
	}
	return onepassword.CreditCardFields{
		Cardholder:         v[0],
		Type:               v[1],
		Number:             v[2],
		VerificationNumber: v[3],
		Expiry:             export.MonthYear(v[4]),
		ValidFrom:          export.MonthYear(v[5]),
		Notes:              fields["Notes"],
	}, true
}

func bankAccountFields(fields map[string]string) (onepassword.BankAccountFields, bool) {
	v, ok := lookupAll(fields, "Bank Name", "Account Type", "Routing Number", "Account Number")
	if !ok {
		return onepassword.BankAccountFields{}, false
	}
	return onepassword.BankAccountFields{
		BankName:      v[0],
		AccountType:   v[1],
		RoutingNumber: v[2],
		AccountNumber: v[3],
		SWIFT:         fields["SWIFT Code"],
		IBAN:          fields["IBAN Number"],
		PIN:           fields["Pin"],
		BranchPhone:   fields["Branch Phone"],
		BranchAddress: fields["Branch Address"],
		Notes:         fields["Notes"],
	}, true
}
