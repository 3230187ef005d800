package migrate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxBatchSize matches the bulk-create limit the importer has been
	// run with most often. Different deployments have reported different
	// limits, so it is configuration, not a constant baked into the executor.
	DefaultMaxBatchSize = 10

	DefaultPrivatePrefix    = "Private - "
	DefaultCallTimeout      = 30 * time.Second
	DefaultVaultConcurrency = 4
)

// Config is the full set of operator-supplied options for one migration run.
type Config struct {
	// Input is the path to the export: a bare JSON/CSV document or a ZIP with
	// export.json and a files/ blob directory.
	Input string `yaml:"input"`
	// DefaultVault receives records with no folder references.
	DefaultVault string `yaml:"default_vault"`
	// PrivatePrefix is prepended to private folder names when deriving vault
	// names.
	PrivatePrefix string `yaml:"private_prefix"`
	// UserForPrivate, when set, is granted editing access to every private and
	// default vault.
	UserForPrivate string `yaml:"user_for_private"`
	// MaxBatchSize bounds the number of items per batch-create call.
	MaxBatchSize int `yaml:"max_batch_size"`
	// VaultConcurrency bounds how many vaults have chunks in flight at once.
	VaultConcurrency int `yaml:"vault_concurrency"`
	// CallTimeout applies per call at the target-system boundary.
	CallTimeout time.Duration `yaml:"call_timeout"`
	DryRun      bool          `yaml:"dry_run"`
	Quiet       bool          `yaml:"quiet"`
	// ScratchDir receives materialized attachments. Defaults to a fresh temp
	// directory.
	ScratchDir string `yaml:"scratch_dir"`
}

func DefaultConfig() Config {
	return Config{
		PrivatePrefix:    DefaultPrivatePrefix,
		MaxBatchSize:     DefaultMaxBatchSize,
		VaultConcurrency: DefaultVaultConcurrency,
		CallTimeout:      DefaultCallTimeout,
	}
}

// LoadConfigFile overlays YAML settings from path onto cfg. Flags set on the
// command line are applied afterwards by the caller, so they win.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.DefaultVault == "" {
		return fmt.Errorf("default vault name is required")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got %d", c.MaxBatchSize)
	}
	if c.VaultConcurrency <= 0 {
		return fmt.Errorf("vault concurrency must be positive, got %d", c.VaultConcurrency)
	}
	return nil
}
