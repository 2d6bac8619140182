package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"imap-engine/internal/imap"
)

func (a *cliApp) fetchCmd() *cobra.Command {
	var mailbox string
	var uidSet string

	c := &cobra.Command{
		Use:   "fetch",
		Short: "SELECT a mailbox and FETCH ENVELOPE for a UID range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireProfile(); err != nil {
				return err
			}
			if mailbox == "" {
				return fmt.Errorf("imapctl: --mailbox is required")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			eng, _, err := dial(ctx, a)
			if err != nil {
				return err
			}
			defer eng.Logout(ctx)

			if err := selectMailbox(ctx, eng, mailbox); err != nil {
				return err
			}

			set, err := imap.ParseUIDSet(uidSet)
			if err != nil {
				return fmt.Errorf("imapctl: --uids: %w", err)
			}

			results, err := fetchEnvelopes(ctx, eng, set)
			if err != nil {
				return err
			}
			for _, r := range results {
				subject := ""
				if r.Envelope != nil {
					subject = r.Envelope.Subject
				}
				fmt.Fprintf(cmd.OutOrStdout(), "uid=%d seq=%d subject=%q\n", r.UID, r.SeqNum, subject)
			}
			return nil
		},
	}
	c.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to select")
	c.Flags().StringVar(&uidSet, "uids", "1:*", "UID set to fetch, e.g. \"1:5,7,10:*\"")
	return c
}

func selectMailbox(ctx context.Context, eng *imap.Engine, mailbox string) error {
	cmd, err := eng.NewCommand("SELECT", "SELECT %F", mailbox)
	if err != nil {
		return err
	}
	return eng.Do(ctx, cmd)
}

func fetchEnvelopes(ctx context.Context, eng *imap.Engine, set imap.UIDSet) ([]*imap.FetchResult, error) {
	budget := eng.QuirksMode().MaxCommandLength()
	var all []*imap.FetchResult
	for _, chunk := range imap.EnumerateSubsets(set, budget) {
		cmd, err := eng.NewCommand("UID FETCH", "UID FETCH %s (UID ENVELOPE)", chunk.String())
		if err != nil {
			return nil, err
		}
		var results []*imap.FetchResult
		cmd.NumberedHandlers = map[string]imap.NumberedHandler{
			"FETCH": imap.CollectFetchResults(&results),
		}
		if err := eng.Do(ctx, cmd); err != nil {
			return nil, err
		}
		all = append(all, results...)
	}
	return all, nil
}
