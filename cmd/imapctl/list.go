package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"imap-engine/internal/imap"
)

func (a *cliApp) listFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list mailboxes visible to this profile, applying its folder filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireProfile(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			eng, profile, err := dial(ctx, a)
			if err != nil {
				return err
			}
			defer eng.Logout(ctx)

			entries, err := listMailboxes(ctx, eng)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if profile.HasFolderFilter() && !profile.FolderAllowed(e.Name) {
					continue
				}
				writable := ""
				if profile.FolderWritable(e.Name) {
					writable = " (writable)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", e.Name, writable)
			}
			return nil
		},
	}
}

func listMailboxes(ctx context.Context, eng *imap.Engine) ([]imap.ListEntry, error) {
	cmd, err := eng.NewCommand("LIST", "LIST \"\" %s", "*")
	if err != nil {
		return nil, err
	}
	var entries []imap.ListEntry
	cmd.UntaggedHandlers = map[string]imap.UntaggedHandler{
		"LIST": func(eng *imap.Engine, cmd *imap.Command, tz *imap.Tokenizer) error {
			entry, err := imap.ParseListForCaller(tz)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		},
	}
	if err := eng.Do(ctx, cmd); err != nil {
		return nil, err
	}
	return entries, nil
}
