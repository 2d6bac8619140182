package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"imap-engine/internal/imap"
)

func (a *cliApp) idleCmd() *cobra.Command {
	var mailbox string

	c := &cobra.Command{
		Use:   "idle",
		Short: "SELECT a mailbox and IDLE until interrupted, printing server events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireProfile(); err != nil {
				return err
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

			eng.Subscribe(func(ev imap.Event) {
				switch ev.Kind {
				case imap.EventExists:
					fmt.Fprintln(cmd.OutOrStdout(), "new message(s) arrived")
				case imap.EventExpunge:
					fmt.Fprintln(cmd.OutOrStdout(), "message expunged")
				case imap.EventAlert:
					fmt.Fprintln(cmd.OutOrStdout(), "server alert")
				}
			})

			session, err := eng.Idle(ctx)
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			return session.Stop()
		},
	}
	c.Flags().StringVar(&mailbox, "mailbox", "INBOX", "mailbox to idle on")
	return c
}
