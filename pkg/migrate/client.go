package migrate

import (
	"context"

	"github.com/conductorone/keeper-migrate/pkg/onepassword"
)

// TargetClient abstracts the target system. The production implementation
// wraps the 1Password CLI; tests substitute an in-memory fake.
type TargetClient interface {
	// GetSignedInAccount verifies connectivity at startup.
	GetSignedInAccount(ctx context.Context) (onepassword.AuthResponse, error)
	// FindVaultByName returns (nil, nil) when no vault has that exact name.
	FindVaultByName(ctx context.Context, name string) (*onepassword.Vault, error)
	CreateVault(ctx context.Context, name string) (*onepassword.Vault, error)
	SubjectExists(ctx context.Context, name string, isGroup bool) (bool, error)
	GrantVaultAccess(ctx context.Context, vaultID, subject string, isGroup bool, permissions []string) error
	// CreateItems returns one result per request in order. An error fails the
	// whole chunk; per-item failures are carried in the results.
	CreateItems(ctx context.Context, vaultID string, items []onepassword.ItemCreateParams) ([]onepassword.ItemResult, error)
}

var _ TargetClient = (*onepassword.Cli)(nil)
