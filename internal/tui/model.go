// Package tui is the terminal dashboard. The countdown ticks every second
// from local time only; market data loads through a refresh function.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/countdown"
	"trumpwatch/internal/display"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	clockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	valueStyle   = lipgloss.NewStyle().Bold(true).Width(12)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	quoteStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("14"))

	toneStyles = map[display.Tone]lipgloss.Style{
		display.ToneGood:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		display.ToneBad:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		display.ToneAccent:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		display.ToneNeutral: lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	}
)

const (
	barWidth = 40
	// Seconds each quote stays on screen.
	quoteRotateTicks = 8
)

// RefreshFunc loads one dashboard. It is called off the UI goroutine.
type RefreshFunc func(ctx context.Context) (aggregator.Dashboard, error)

type tickMsg time.Time

type dashboardMsg struct {
	dash aggregator.Dashboard
	err  error
}

// Model is the bubbletea model for the watch command.
type Model struct {
	term    countdown.TermWindow
	refresh RefreshFunc
	now     func() time.Time

	snap     countdown.Snapshot
	dash     aggregator.Dashboard
	loaded   bool
	loading  bool
	err      error
	ticks    int
	quoteIdx int
}

// New builds a model counting down term. Init issues the first load, so the
// model starts in the loading state.
func New(term countdown.TermWindow, refresh RefreshFunc) Model {
	m := Model{term: term, refresh: refresh, now: time.Now, loading: true}
	m.snap = term.Snapshot(m.now())
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loadCmd() tea.Cmd {
	refresh := m.refresh
	return func() tea.Msg {
		if refresh == nil {
			return dashboardMsg{err: fmt.Errorf("no data sources configured")}
		}
		dash, err := refresh(context.Background())
		return dashboardMsg{dash: dash, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.loadCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.loadCmd()
		}
	case tickMsg:
		m.snap = m.term.Snapshot(time.Time(msg))
		m.ticks++
		if n := len(m.dash.Quotes.Quotes); n > 0 && m.ticks%quoteRotateTicks == 0 {
			m.quoteIdx = (m.quoteIdx + 1) % n
		}
		return m, tickCmd()
	case dashboardMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.dash = msg.dash
			m.loaded = true
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("TRUMPWATCH"))
	b.WriteString("  " + m.snap.Day() + "\n\n")

	if m.snap.Complete {
		b.WriteString(clockStyle.Render("The term is over.") + "\n")
	} else {
		b.WriteString(clockStyle.Render(display.Countdown(m.snap.Remaining)) + " remaining\n")
	}
	b.WriteString(display.Bar(m.snap.PercentComplete, barWidth) + " " + display.Progress(m.snap) + "\n\n")

	switch {
	case !m.loaded && m.err != nil:
		b.WriteString(warningStyle.Render(m.err.Error()) + "\n")
	case !m.loaded:
		b.WriteString(dimStyle.Render("Loading market data...") + "\n")
	default:
		b.WriteString(m.renderCards())
	}

	b.WriteString("\n" + dimStyle.Render(m.footer()))
	return b.String()
}

func (m Model) renderCards() string {
	var b strings.Builder
	for _, card := range display.Cards(m.dash.Readings(), m.term.Start) {
		style, ok := toneStyles[card.Tone]
		if !ok {
			style = toneStyles[display.ToneNeutral]
		}
		b.WriteString(labelStyle.Render(card.Label))
		b.WriteString(valueStyle.Inherit(style).Render(card.Value))
		b.WriteString(style.Render(card.Sub) + "\n")
	}

	if quotes := m.dash.Quotes.Quotes; len(quotes) > 0 {
		q := quotes[m.quoteIdx%len(quotes)]
		b.WriteString("\n" + quoteStyle.Render(fmt.Sprintf("%q", q.Text)))
		if !q.AppearedAt.IsZero() {
			b.WriteString(dimStyle.Render(" (" + q.AppearedAt.Format("Jan 2, 2006") + ")"))
		}
		b.WriteString("\n")
	}
	if post := m.dash.Post.Post; post.Content != "" {
		b.WriteString("\n" + dimStyle.Render("Latest post: ") + post.Content + "\n")
	}
	if m.dash.Warning != "" {
		b.WriteString("\n" + warningStyle.Render(m.dash.Warning) + "\n")
	}
	return b.String()
}

func (m Model) footer() string {
	status := "r refresh · q quit"
	switch {
	case m.loading:
		status = "refreshing... · q quit"
	case m.loaded:
		status = "updated " + m.dash.RefreshedAt.Local().Format("15:04:05") + " · " + status
	}
	if m.loaded && m.err != nil {
		status = "refresh failed: " + m.err.Error() + " · " + status
	}
	return status
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(term countdown.TermWindow, refresh RefreshFunc) error {
	p := tea.NewProgram(New(term, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
