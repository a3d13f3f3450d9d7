package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/talgya/hexworlds/internal/client"
	"github.com/talgya/hexworlds/internal/editor"
)

type statusMsg editor.Status

type feedErrMsg struct{ err error }

type savedMsg struct{ err error }

type tickMsg time.Time

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC143C"))
)

// watchModel shows the latest status pushed by the server. It keeps the
// last good status on screen when the feed drops.
type watchModel struct {
	c       *client.Client
	ctx     context.Context
	status  *editor.Status
	updates int
	err     error
	note    string
	now     time.Time
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, tick())
}

func (m watchModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
	defer cancel()
	st, err := m.c.Status(ctx)
	if err != nil {
		return feedErrMsg{err}
	}
	return statusMsg(*st)
}

func (m watchModel) save() tea.Msg {
	ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
	defer cancel()
	return savedMsg{m.c.Save(ctx)}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			m.note = "saving..."
			return m, m.save
		case "r":
			return m, m.fetch
		}
	case statusMsg:
		st := editor.Status(msg)
		m.status = &st
		m.updates++
		m.err = nil
	case feedErrMsg:
		m.err = msg.err
	case savedMsg:
		if msg.err != nil {
			m.note = "save failed: " + msg.err.Error()
		} else {
			m.note = "saved"
		}
	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	out := "connecting..."
	if m.status != nil {
		out = renderStatus(*m.status, nil, m.now)
	}
	out += "\n" + helpStyle.Render(fmt.Sprintf("%d updates · s save · r refresh · q quit", m.updates))
	if m.note != "" {
		out += "\n" + m.note
	}
	if m.err != nil {
		out += "\n" + errStyle.Render(m.err.Error())
	}
	return out + "\n"
}

func runWatch(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("watch")
	fs.Parse(args)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(watchModel{c: c, ctx: ctx, now: time.Now()}, tea.WithAltScreen())
	go func() {
		err := c.Watch(ctx, func(st editor.Status) { p.Send(statusMsg(st)) })
		if err != nil && !errors.Is(err, context.Canceled) {
			p.Send(feedErrMsg{fmt.Errorf("feed lost: %w", err)})
		}
	}()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
