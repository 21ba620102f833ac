package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/llehouerou/tubeq/internal/errmsg"
)

func newPlaylistsCmd(configPath func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playlists",
		Aliases: []string{"pl"},
		Short:   "Manage playlists",
	}

	// run opens the environment around fn.
	run := func(fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), configPath(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			return fn(cmd, e, args)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List playlists",
		Args:  cobra.NoArgs,
		RunE: run(func(cmd *cobra.Command, e *env, _ []string) error {
			printPlaylists(cmd.OutOrStdout(), e.app.Playlists.List())
			return nil
		}),
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a playlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(cmd *cobra.Command, e *env, args []string) error {
			name := strings.Join(args, " ")
			pl, err := e.app.Playlists.Create(cmd.Context(), name)
			if err != nil {
				return failed(errmsg.OpPlaylistCreate, name, err)
			}
			printOK(cmd.OutOrStdout(), "Created playlist %s (%s)", pl.Name, pl.ID)
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a playlist",
		Args:  cobra.MinimumNArgs(2),
		RunE: run(func(cmd *cobra.Command, e *env, args []string) error {
			name := strings.Join(args[1:], " ")
			if err := e.app.Playlists.Rename(cmd.Context(), args[0], name); err != nil {
				return failed(errmsg.OpPlaylistRename, args[0], err)
			}
			printOK(cmd.OutOrStdout(), "Renamed playlist to %s", strings.TrimSpace(name))
			return nil
		}),
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a playlist (its songs stay in the library)",
		Args:    cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, e *env, args []string) error {
			if err := e.app.Playlists.Delete(cmd.Context(), args[0]); err != nil {
				return failed(errmsg.OpPlaylistDelete, args[0], err)
			}
			printOK(cmd.OutOrStdout(), "Deleted playlist %s", args[0])
			return nil
		}),
	}

	toggle := &cobra.Command{
		Use:   "toggle <id> <track-id>",
		Short: "Add a song to a playlist, or remove it if already there",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(cmd *cobra.Command, e *env, args []string) error {
			member, err := e.app.TogglePlaylistTrack(cmd.Context(), args[0], args[1])
			if err != nil {
				return failed(errmsg.OpPlaylistToggle, args[0], err)
			}
			if member {
				printOK(cmd.OutOrStdout(), "Added to playlist")
			} else {
				printOK(cmd.OutOrStdout(), "Removed from playlist")
			}
			return nil
		}),
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "List the songs of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(cmd *cobra.Command, e *env, args []string) error {
			pl, err := e.app.Playlists.Get(args[0])
			if err != nil {
				return failed(errmsg.OpPlaylistLoad, args[0], err)
			}
			printTracks(cmd.OutOrStdout(), e.app.Library.Filter(pl.Contains), "Playlist is empty.")
			return nil
		}),
	}

	cmd.AddCommand(list, create, rename, del, toggle, show)
	return cmd
}
