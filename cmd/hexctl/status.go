package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/talgya/hexworlds/internal/client"
	"github.com/talgya/hexworlds/internal/editor"
	"github.com/talgya/hexworlds/internal/persistence"
	"github.com/talgya/hexworlds/internal/world"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(12)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4682B4")).
			Padding(0, 1)

	saveStyles = map[editor.SaveStatus]lipgloss.Style{
		editor.SaveIdle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		editor.SaveSaving: lipgloss.NewStyle().Foreground(lipgloss.Color("#DAA520")),
		editor.SaveSaved:  lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		editor.SaveError:  lipgloss.NewStyle().Foreground(lipgloss.Color("#DC143C")).Bold(true),
	}
)

func runStatus(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("status")
	limit := fs.IntP("events", "n", 5, "recent events to show")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	st, err := c.Status(ctx)
	if err != nil {
		return err
	}
	var events []persistence.Event
	if *limit > 0 {
		if events, err = c.Events(ctx, *limit); err != nil {
			return err
		}
	}
	fmt.Println(renderStatus(*st, events, time.Now()))
	return nil
}

// renderStatus lays the summary out as a bordered panel, with the activity
// log below when there is any.
func renderStatus(st editor.Status, events []persistence.Event, now time.Time) string {
	saveStyle, ok := saveStyles[st.SaveStatus]
	if !ok {
		saveStyle = saveStyles[editor.SaveIdle]
	}
	saved := saveStyle.Render(st.SaveLabel)
	if st.Unsaved {
		saved += " (unsaved changes)"
	}

	rows := [][2]string{
		{"revision", humanize.Comma(int64(st.Revision))},
		{"hexes", humanize.Comma(int64(st.Counts.Hexes))},
		{"dungeons", humanize.Comma(int64(st.Counts.Dungeons))},
		{"tokens", fmt.Sprintf("%d (%d routing)", st.Counts.Tokens, st.Routing)},
		{"landmarks", humanize.Comma(int64(st.Counts.Landmarks))},
		{"paths", fmt.Sprintf("%d (draft %d points)", st.Counts.Paths, st.DraftLen)},
		{"tool", fmt.Sprintf("%s / %s, %s brush %d", st.ViewMode, st.Mode, world.TerrainName(st.Terrain), st.BrushSize)},
		{"viewport", fmt.Sprintf("%.0f, %.0f at %.2fx", st.Viewport.OffsetX, st.Viewport.OffsetY, st.Viewport.Scale)},
		{"save", saved},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("hexworlds"))
	for _, r := range rows {
		b.WriteString("\n" + labelStyle.Render(r[0]) + r[1])
	}
	out := panelStyle.Render(b.String())

	if len(events) > 0 {
		var log strings.Builder
		log.WriteString(titleStyle.Render("activity"))
		for _, ev := range events {
			when := humanize.RelTime(time.UnixMilli(ev.At), now, "ago", "from now")
			line := fmt.Sprintf("%-9s %s", ev.Kind, when)
			if ev.Detail != "" {
				line += "  " + ev.Detail
			}
			log.WriteString("\n" + line)
		}
		out = lipgloss.JoinVertical(lipgloss.Left, out, panelStyle.Render(log.String()))
	}
	return out
}
