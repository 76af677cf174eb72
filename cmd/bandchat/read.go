package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bandchat/feed"
	"bandchat/models"
)

func init() {
	readCmd.Flags().IntP("pages", "p", 1, "number of pages to load, 0 for all history")
	rootCmd.AddCommand(readCmd)
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print the latest messages of a room",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, stderrWriter())
		if err != nil {
			return err
		}
		defer e.Close()
		viewer, err := e.viewerID()
		if err != nil {
			return err
		}

		conv := feed.NewConversation(e.api, nil, viewer, e.cfg.Client.PageSize, e.log)
		conv.Switch(e.roomID())
		ctx := cmd.Context()
		if err := conv.LoadLatest(ctx); err != nil {
			return err
		}

		pages, _ := cmd.Flags().GetInt("pages")
		for i := 1; pages == 0 || i < pages; i++ {
			added, err := conv.LoadOlder(ctx)
			if err != nil {
				return err
			}
			if !added {
				break
			}
		}

		printFeed(cmd.OutOrStdout(), conv, time.Now())
		return nil
	},
}

func printFeed(w io.Writer, conv *feed.Conversation, now time.Time) {
	if conv.Cursor().HasMore() {
		fmt.Fprintln(w, "… older messages not loaded")
	}
	for _, m := range conv.Store().Messages() {
		printMessage(w, conv, m, now)
	}
}

func printMessage(w io.Writer, conv *feed.Conversation, m models.Message, now time.Time) {
	who := m.SenderName
	if conv.IsMine(m) {
		who = "you"
	} else if who == "" {
		who = m.SenderID
	}
	fmt.Fprintf(w, "[%d] %s, %s\n", m.ID, who, humanize.RelTime(m.SentAt, now, "ago", "from now"))
	if p := conv.ReplyPreview(m); p != "" {
		fmt.Fprintf(w, "    > %s\n", p)
	}
	if m.Attachment != nil {
		fmt.Fprintf(w, "    [%s] %s (%s)\n", strings.ToLower(string(m.Kind)), m.Attachment.Name, humanize.Bytes(uint64(m.Attachment.Size)))
	}
	if m.Body != "" {
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(m.Body, "\n", "\n    "))
	}
}
