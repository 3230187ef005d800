package onepassword

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// 1Password CLI instance.
type Cli struct {
	token string
}

func NewCli(token string) *Cli {
	return &Cli{
		token: token,
	}
}

// GetSignedInAccount gets information about the signed in account. Used as a
// connectivity check before a migration run starts.
func (cli *Cli) GetSignedInAccount(ctx context.Context) (AuthResponse, error) {
	args := []string{"whoami"}

	var res AuthResponse
	err := cli.executeCommand(ctx, args, nil, &res)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("error getting signed in account details: %w", err)
	}

	return res, nil
}

// FindVaultByName looks up a vault by its exact name. A nil vault with a nil
// error means no vault with that name exists.
func (cli *Cli) FindVaultByName(ctx context.Context, name string) (*Vault, error) {
	args := []string{"vault", "get", name}

	var res Vault
	err := cli.executeCommand(ctx, args, nil, &res)
	if err != nil {
		// The CLI exits nonzero both for "not found" and for real failures;
		// only an exit error is treated as absence.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting vault: %w", err)
	}

	return &res, nil
}

// CreateVault creates a vault with the given name.
func (cli *Cli) CreateVault(ctx context.Context, name string) (*Vault, error) {
	args := []string{"vault", "create", name}

	var res Vault
	err := cli.executeCommand(ctx, args, nil, &res)
	if err != nil {
		return nil, fmt.Errorf("error creating vault: %w", err)
	}

	return &res, nil
}

// SubjectExists reports whether a user or group with the given name exists in
// the account.
func (cli *Cli) SubjectExists(ctx context.Context, name string, isGroup bool) (bool, error) {
	kind := "user"
	if isGroup {
		kind = "group"
	}
	args := []string{kind, "get", name}

	err := cli.executeCommand(ctx, args, nil, nil)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("error getting %s: %w", kind, err)
	}

	return true, nil
}

// GrantVaultAccess grants a user or group the given permission set on a vault.
func (cli *Cli) GrantVaultAccess(ctx context.Context, vaultID, subject string, isGroup bool, permissions []string) error {
	kind := "user"
	if isGroup {
		kind = "group"
	}
	args := []string{
		"vault", kind, "grant",
		"--no-input",
		"--vault", vaultID,
		"--" + kind, subject,
		"--permissions", joinPermissions(permissions),
	}

	err := cli.executeCommand(ctx, args, nil, nil)
	if err != nil {
		return fmt.Errorf("error granting %s access to vault: %w", kind, err)
	}

	return nil
}

// CreateItems creates a batch of items in a vault, returning one result per
// request in order. Per-item failures are recorded in the result list; an
// error is returned only when the CLI itself cannot be invoked, which fails
// the whole batch.
func (cli *Cli) CreateItems(ctx context.Context, vaultID string, items []ItemCreateParams) ([]ItemResult, error) {
	results := make([]ItemResult, 0, len(items))
	for _, params := range items {
		template, err := json.Marshal(params.Template)
		if err != nil {
			results = append(results, ItemResult{Title: params.Template.Title, Err: err})
			continue
		}

		args := []string{"item", "create", "-", "--vault", vaultID}

		var item Item
		err = cli.executeCommand(ctx, args, template, &item)
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				// Transport-level failure, fail the whole batch.
				return nil, fmt.Errorf("error creating items in vault %s: %w", vaultID, err)
			}
			results = append(results, ItemResult{Title: params.Template.Title, Err: err})
			continue
		}

		res := ItemResult{ItemID: item.ID, Title: params.Template.Title}
		for _, file := range params.Files {
			if err := cli.attachFile(ctx, vaultID, item.ID, file); err != nil {
				res.Err = err
				break
			}
		}
		results = append(results, res)
	}

	return results, nil
}

func (cli *Cli) attachFile(ctx context.Context, vaultID, itemID string, file FileAttachment) error {
	args := []string{
		"item", "edit", itemID,
		"--vault", vaultID,
		fmt.Sprintf("%s[file]=%s", file.Name, file.Path),
	}

	err := cli.executeCommand(ctx, args, nil, nil)
	if err != nil {
		return fmt.Errorf("error attaching file %s: %w", file.Name, err)
	}

	return nil
}

func (cli *Cli) executeCommand(ctx context.Context, args []string, stdin []byte, res interface{}) error {
	l := ctxzap.Extract(ctx)

	defaultArgs := []string{"--format=json"}
	if cli.token != "" {
		defaultArgs = append(defaultArgs, "--session", cli.token)
	}
	defaultArgs = append(args, defaultArgs...)

	cmd := exec.CommandContext(ctx, "op", defaultArgs...) // #nosec
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			l.Error(
				"error executing command",
				zap.Error(err),
				zap.String("stderr", string(exitErr.Stderr)),
				zap.String("stdout", string(output)),
				zap.Int("exit_code", exitErr.ExitCode()),
				zap.Strings("command_args", cmd.Args),
			)
		}

		return fmt.Errorf("error: %w", err)
	}

	if res == nil {
		return nil
	}

	if err := json.Unmarshal(output, &res); err != nil {
		return fmt.Errorf("error unmarshalling response: %w", err)
	}

	return nil
}
