package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bandchat/client"
	"bandchat/feed"
)

func init() {
	sendCmd.Flags().Int64("reply", 0, "id of the message to reply to")
	attachCmd.Flags().Int64("reply", 0, "id of the message to reply to")
	attachCmd.Flags().String("caption", "", "text sent with the file")
	rootCmd.AddCommand(sendCmd, attachCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <text>...",
	Short: "Post a text message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, e, err := openForSend(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		msg, err := conv.Send(cmd.Context(), strings.Join(args, " "), replyFlag(cmd))
		if err != nil {
			return err
		}
		printMessage(cmd.OutOrStdout(), conv, msg, time.Now())
		return nil
	},
}

var attachCmd = &cobra.Command{
	Use:   "attach <path>",
	Short: "Upload a file and post it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, e, err := openForSend(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		caption, _ := cmd.Flags().GetString("caption")
		in, err := client.ReadAttachment(args[0], caption)
		if err != nil {
			return err
		}
		in.ParentID = replyFlag(cmd)

		job, err := conv.AttachmentJob(in)
		if err != nil {
			return err
		}
		res := job(cmd.Context())
		if err := conv.ApplySent(res); err != nil {
			return err
		}
		printMessage(cmd.OutOrStdout(), conv, res.Message, time.Now())
		return nil
	},
}

// openForSend opens the room with its latest page loaded so that reply
// previews resolve.
func openForSend(cmd *cobra.Command) (*feed.Conversation, *env, error) {
	e, err := setup(cmd, stderrWriter())
	if err != nil {
		return nil, nil, err
	}
	viewer, err := e.viewerID()
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	conv := feed.NewConversation(e.api, nil, viewer, e.cfg.Client.PageSize, e.log)
	conv.Switch(e.roomID())
	if err := conv.LoadLatest(cmd.Context()); err != nil {
		e.Close()
		return nil, nil, err
	}
	return conv, e, nil
}

func replyFlag(cmd *cobra.Command) *int64 {
	id, _ := cmd.Flags().GetInt64("reply")
	if id <= 0 {
		return nil
	}
	return &id
}
