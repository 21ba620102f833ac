package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/tubeq/internal/errmsg"
)

func newTracksCmd(configPath func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tracks",
		Aliases: []string{"songs"},
		Short:   "Manage the song library",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), configPath(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			printTracks(cmd.OutOrStdout(), e.app.Library.Tracks(), "No songs yet.")
			return nil
		},
	}

	var playlistID string
	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a video by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), configPath(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			t, err := e.app.AddSong(cmd.Context(), args[0], playlistID)
			if err != nil {
				return failed(errmsg.OpSongAdd, args[0], err)
			}
			printOK(cmd.OutOrStdout(), "Added %s (%s)", t.Title, t.ID)
			return nil
		},
	}
	add.Flags().StringVarP(&playlistID, "playlist", "p", "", "also add the song to this playlist")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a song from the library and every playlist",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), configPath(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.app.DeleteTrack(cmd.Context(), args[0]); err != nil {
				return failed(errmsg.OpSongDelete, args[0], err)
			}
			printOK(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for songs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), configPath(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			query := strings.Join(args, " ")
			results, err := e.app.Search(cmd.Context(), query)
			if err != nil {
				return failed(errmsg.OpSearch, query, err)
			}
			printTracks(cmd.OutOrStdout(), results, "No results.")
			return nil
		},
	}

	history := &cobra.Command{
		Use:   "history",
		Short: "Show recently played songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context(), configPath(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			printHistory(cmd.OutOrStdout(), e.app.History.Entries())
			return nil
		},
	}

	cmd.AddCommand(list, add, del, search, history)
	return cmd
}
