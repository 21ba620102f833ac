package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/tubeq/internal/errmsg"
	"github.com/llehouerou/tubeq/internal/history"
	"github.com/llehouerou/tubeq/internal/playlist"
	"github.com/llehouerou/tubeq/internal/playlists"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// opError reports a failed user operation the way the web interface does.
type opError struct {
	op      errmsg.Op
	subject string
	err     error
}

func (e *opError) Error() string { return errmsg.FormatOn(e.op, e.subject, e.err) }
func (e *opError) Unwrap() error { return e.err }

func failed(op errmsg.Op, subject string, err error) error {
	return &opError{op: op, subject: subject, err: err}
}

func printOK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf(format, args...)))
}

func printTracks(w io.Writer, tracks []playlist.Track, empty string) {
	if len(tracks) == 0 {
		fmt.Fprintln(w, dimStyle.Render(empty))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d songs", len(tracks))))
	for _, t := range tracks {
		fmt.Fprintf(w, "%s  %s  %s\n",
			dimStyle.Render(t.ID),
			titleStyle.Render(t.Title),
			dimStyle.Render(t.Source.String()),
		)
	}
}

func printPlaylists(w io.Writer, lists []playlists.Playlist) {
	if len(lists) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No playlists yet."))
		return
	}
	width := 0
	for _, pl := range lists {
		width = max(width, lipgloss.Width(pl.Name))
	}
	for _, pl := range lists {
		name := pl.Name + strings.Repeat(" ", width-lipgloss.Width(pl.Name))
		fmt.Fprintf(w, "%s  %s  %s\n",
			titleStyle.Render(name),
			dimStyle.Render(pl.ID),
			dimStyle.Render(fmt.Sprintf("%d songs", len(pl.SongIDs))),
		)
	}
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Nothing played yet."))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n",
			dimStyle.Render(e.PlayedAt.Local().Format(time.DateTime)),
			titleStyle.Render(e.Title),
		)
	}
}
