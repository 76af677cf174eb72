package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	roomsCmd.Flags().String("create", "", "create a room with this name")
	roomsCmd.Flags().Bool("private", false, "make the created room private")
	rootCmd.AddCommand(roomsCmd)
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List rooms, or create one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, stderrWriter())
		if err != nil {
			return err
		}
		defer e.Close()

		if name, _ := cmd.Flags().GetString("create"); name != "" {
			private, _ := cmd.Flags().GetBool("private")
			room, err := e.api.CreateRoom(cmd.Context(), name, private)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created room %d %q\n", room.ID, room.Name)
			return nil
		}

		rooms, err := e.api.ListRooms(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRIVATE\tCREATED")
		for _, r := range rooms {
			fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", r.ID, r.Name, r.IsPrivate, humanize.Time(r.CreatedAt))
		}
		return w.Flush()
	},
}
