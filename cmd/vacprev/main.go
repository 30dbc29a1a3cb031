package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/vacprev/internal/cli"
	"github.com/terraincognita07/vacprev/internal/config"
	"github.com/terraincognita07/vacprev/internal/logger"
	"github.com/terraincognita07/vacprev/internal/normalize"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vacprev",
		Short:         "Vaccine supply history and forecast API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCommand(),
		newImportRulesCommand(),
		newDBCheckCommand(),
		newNormalizeCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newImportRulesCommand() *cobra.Command {
	var file string

	command := &cobra.Command{
		Use:   "import-rules",
		Short: "Replace the stored normalization rules with a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.MappingsPath
			}

			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			defer func() {
				_ = log.Sync()
			}()

			return cli.RunImportRulesCommand(cfg.DBPath, file, cmd.OutOrStdout(), log)
		},
	}
	command.Flags().StringVarP(&file, "file", "f", "", "rule file to import (defaults to MAPPINGS_PATH)")
	return command
}

func newDBCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "db-check",
		Short: "Check the connection to the database behind the forecast RPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return cli.RunDBCheckCommand(cmd.Context(), cfg.Postgres.DSN, cmd.OutOrStdout())
		},
	}
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "normalize {insumo|sigla} TEXT...",
		Short:     "Print the canonical form of supply names or region codes",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{cli.NormalizeKindInsumo, cli.NormalizeKindSigla},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			rules, _, err := loadRules(cfg, nil)
			if err != nil {
				return err
			}
			return cli.RunNormalizeCommand(normalize.New(rules), args[0], args[1:], cmd.OutOrStdout())
		},
	}
}
