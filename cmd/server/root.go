package main

import (
	"os"

	"credential_service/internal/config"
	"credential_service/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configFile string

// NewRootCmd creates the root command for the credential service
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "credential-service",
		Short:        "User registration, verification and login service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (overrides CONFIG_FILE)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
