package migrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/conductorone/keeper-migrate/pkg/onepassword"
)

type grantCall struct {
	VaultID     string
	Subject     string
	IsGroup     bool
	Permissions []string
}

type batchCall struct {
	VaultID string
	Items   []onepassword.ItemCreateParams
}

// fakeClient is an in-memory TargetClient recording every mutation.
type fakeClient struct {
	mu sync.Mutex

	vaults   map[string]string
	subjects map[string]bool

	failCreateVault map[string]error
	failGrant       error
	chunkErr        func(vaultID string, call int) error
	itemErr         func(vaultID string, index int, params onepassword.ItemCreateParams) error

	findCalls   []string
	createCalls []string
	grants      []grantCall
	batches     []batchCall
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		vaults:          make(map[string]string),
		subjects:        make(map[string]bool),
		failCreateVault: make(map[string]error),
	}
}

func subjectKey(name string, isGroup bool) string {
	if isGroup {
		return "group:" + name
	}
	return "user:" + name
}

func (f *fakeClient) addVault(name string) string {
	id := fmt.Sprintf("vault-%d", len(f.vaults)+1)
	f.vaults[name] = id
	return id
}

func (f *fakeClient) GetSignedInAccount(context.Context) (onepassword.AuthResponse, error) {
	return onepassword.AuthResponse{Email: "ops@example.com"}, nil
}

func (f *fakeClient) FindVaultByName(_ context.Context, name string) (*onepassword.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls = append(f.findCalls, name)
	id, ok := f.vaults[name]
	if !ok {
		return nil, nil
	}
	return &onepassword.Vault{BaseType: onepassword.BaseType{ID: id, Name: name}}, nil
}

func (f *fakeClient) CreateVault(_ context.Context, name string) (*onepassword.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failCreateVault[name]; ok {
		return nil, err
	}
	f.createCalls = append(f.createCalls, name)
	id := f.addVault(name)
	return &onepassword.Vault{BaseType: onepassword.BaseType{ID: id, Name: name}}, nil
}

func (f *fakeClient) SubjectExists(_ context.Context, name string, isGroup bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subjects[subjectKey(name, isGroup)], nil
}

func (f *fakeClient) GrantVaultAccess(_ context.Context, vaultID, subject string, isGroup bool, permissions []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGrant != nil {
		return f.failGrant
	}
	f.grants = append(f.grants, grantCall{
		VaultID:     vaultID,
		Subject:     subject,
		IsGroup:     isGroup,
		Permissions: permissions,
	})
	return nil
}

func (f *fakeClient) CreateItems(_ context.Context, vaultID string, items []onepassword.ItemCreateParams) ([]onepassword.ItemResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.batches)
	if f.chunkErr != nil {
		if err := f.chunkErr(vaultID, call); err != nil {
			return nil, err
		}
	}
	f.batches = append(f.batches, batchCall{VaultID: vaultID, Items: items})

	results := make([]onepassword.ItemResult, 0, len(items))
	for i, params := range items {
		res := onepassword.ItemResult{
			ItemID: fmt.Sprintf("item-%d-%d", call, i),
			Title:  params.Template.Title,
		}
		if f.itemErr != nil {
			res.Err = f.itemErr(vaultID, i, params)
		}
		results = append(results, res)
	}
	return results, nil
}

func (f *fakeClient) batchesFor(vaultID string) []batchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []batchCall
	for _, b := range f.batches {
		if b.VaultID == vaultID {
			out = append(out, b)
		}
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Input = "unused"
	cfg.DefaultVault = "Imported"
	return cfg
}
