package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conductorone/keeper-migrate/pkg/migrate"
	"github.com/conductorone/keeper-migrate/pkg/onepassword"
)

var version = "dev"

func main() {
	// Optional .env for OP_SERVICE_ACCOUNT_TOKEN and friends.
	_ = godotenv.Load()

	var (
		configPath string
		cfg        = migrate.DefaultConfig()
	)

	rootCmd := &cobra.Command{
		Use:     "keeper-migrate",
		Short:   "Migrate a Keeper or LastPass export into 1Password vaults",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if configPath != "" {
				fileCfg := migrate.DefaultConfig()
				if err := migrate.LoadConfigFile(configPath, &fileCfg); err != nil {
					return err
				}
				applyFlagOverrides(cmd, &fileCfg, cfg)
				cfg = fileCfg
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.Input, "input", "", "Path to the export: JSON, CSV, or a ZIP with export.json and files/")
	flags.StringVar(&cfg.DefaultVault, "employee-vault", "", "Vault receiving records that reference no folder")
	flags.StringVar(&cfg.PrivatePrefix, "private-prefix", cfg.PrivatePrefix, "Prefix for vaults derived from private folders")
	flags.StringVar(&cfg.UserForPrivate, "user-for-private", "", "User granted editing access to private and default vaults")
	flags.IntVar(&cfg.MaxBatchSize, "max-batch-size", cfg.MaxBatchSize, "Maximum items per batch-create call")
	flags.IntVar(&cfg.VaultConcurrency, "vault-concurrency", cfg.VaultConcurrency, "Vaults processed concurrently during item creation")
	flags.DurationVar(&cfg.CallTimeout, "call-timeout", cfg.CallTimeout, "Per-call timeout at the 1Password boundary")
	flags.BoolVar(&cfg.DryRun, "dry-run", false, "Plan everything, write nothing")
	flags.BoolVar(&cfg.Quiet, "quiet", false, "Only log warnings and errors")
	flags.StringVar(&cfg.ScratchDir, "scratch-dir", "", "Directory for materialized attachments (default: fresh temp dir)")
	flags.StringVar(&configPath, "config", "", "Optional YAML config file; flags override it")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// applyFlagOverrides copies explicitly-set flag values over the file config.
func applyFlagOverrides(cmd *cobra.Command, fileCfg *migrate.Config, flagCfg migrate.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("input") {
		fileCfg.Input = flagCfg.Input
	}
	if set("employee-vault") {
		fileCfg.DefaultVault = flagCfg.DefaultVault
	}
	if set("private-prefix") {
		fileCfg.PrivatePrefix = flagCfg.PrivatePrefix
	}
	if set("user-for-private") {
		fileCfg.UserForPrivate = flagCfg.UserForPrivate
	}
	if set("max-batch-size") {
		fileCfg.MaxBatchSize = flagCfg.MaxBatchSize
	}
	if set("vault-concurrency") {
		fileCfg.VaultConcurrency = flagCfg.VaultConcurrency
	}
	if set("call-timeout") {
		fileCfg.CallTimeout = flagCfg.CallTimeout
	}
	if set("dry-run") {
		fileCfg.DryRun = flagCfg.DryRun
	}
	if set("quiet") {
		fileCfg.Quiet = flagCfg.Quiet
	}
	if set("scratch-dir") {
		fileCfg.ScratchDir = flagCfg.ScratchDir
	}
}

func run(cfg migrate.Config) error {
	logger, err := newLogger(cfg.Quiet)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := ctxzap.ToContext(context.Background(), logger)

	token := os.Getenv("OP_SERVICE_ACCOUNT_TOKEN")
	if token == "" {
		token = os.Getenv("OP_SESSION_TOKEN")
	}

	r := migrate.New(cfg, onepassword.NewCli(token))
	if _, err := r.Execute(ctx); err != nil {
		return err
	}

	if cfg.DryRun {
		for _, entry := range r.Trace().Entries() {
			fmt.Printf("DRY-RUN: would %s\n", entry)
		}
	}

	return nil
}

func newLogger(quiet bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if quiet {
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return zc.Build()
}
