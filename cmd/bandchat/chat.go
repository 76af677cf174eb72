package main

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bandchat/feed"
	"bandchat/tui"
)

func init() {
	chatCmd.Flags().Duration("poll", 0, "refresh interval for new messages (overrides client.poll_interval)")
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive room view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// the terminal belongs to the view; logs go to client log file only
		e, err := setup(cmd, io.Discard)
		if err != nil {
			return err
		}
		defer e.Close()
		viewer, err := e.viewerID()
		if err != nil {
			return err
		}
		if d, _ := cmd.Flags().GetDuration("poll"); d > 0 {
			e.cfg.Client.PollInterval = d
		}

		roomName := ""
		if rooms, err := e.api.ListRooms(cmd.Context()); err == nil {
			for _, r := range rooms {
				if r.ID == e.roomID() {
					roomName = r.Name
				}
			}
		} else {
			e.log.Warn().Err(err).Msg("list rooms")
		}

		conv := feed.NewConversation(e.api, nil, viewer, e.cfg.Client.PageSize, e.log)
		conv.Switch(e.roomID())
		model := tui.New(conv, tui.Options{
			RoomName:       roomName,
			ProximityLines: e.cfg.Client.ProximityLines,
			PollInterval:   e.cfg.Client.PollInterval,
			Logger:         e.log,
		})
		defer model.Close()

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
		_, err = p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	},
}
