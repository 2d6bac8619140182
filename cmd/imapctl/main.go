package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("imapctl: command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var configPath string
	var profileName string

	root := &cobra.Command{
		Use:   "imapctl",
		Short: "imapctl drives an IMAP4rev1 connection from the command line",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to connection profile file")
	root.PersistentFlags().StringVar(&profileName, "profile", "", "connection profile name")

	app := &cliApp{logger: logger, configPath: &configPath, profileName: &profileName}

	root.AddCommand(app.listFoldersCmd())
	root.AddCommand(app.fetchCmd())
	root.AddCommand(app.idleCmd())
	return root
}

type cliApp struct {
	logger      *slog.Logger
	configPath  *string
	profileName *string
}

func (a *cliApp) requireProfile() error {
	if *a.profileName == "" {
		return fmt.Errorf("imapctl: --profile is required")
	}
	return nil
}
