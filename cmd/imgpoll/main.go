package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	cfgpkg "github.com/veranemoloko/imgpoll/internal/config"
	"github.com/veranemoloko/imgpoll/internal/fetch"
	svc "github.com/veranemoloko/imgpoll/internal/service"
	"github.com/veranemoloko/imgpoll/internal/view"
)

// pollInterval is the render tick; every tick performs one coordinator poll.
const pollInterval = 50 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	statusStyle = lipgloss.NewStyle().MarginTop(1)
)

type model struct {
	svc   *svc.FetchService
	cfg   *cfgpkg.Config
	seed  int
	spin  spinner.Model
	state view.State
}

func newModel(service *svc.FetchService, cfg *cfgpkg.Config) model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return model{
		svc:  service,
		cfg:  cfg,
		seed: 1,
		spin: sp,
	}
}

func (m model) Init() tea.Cmd {
	// Fetch the first image immediately. The coordinator is idle at this
	// point, so the spawn cannot be rejected.
	_, _ = m.svc.Spawn(m.cfg.ImageURL(m.seed))
	return tea.Batch(m.spin.Tick, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.state = m.svc.Poll()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter", " ":
			if m.state.Status == view.StatusFetching {
				m.svc.Cancel()
				return m, nil
			}
			m.seed++
			if _, err := m.svc.Spawn(m.cfg.ImageURL(m.seed)); err != nil {
				m.state.Error = err.Error()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m model) View() string {
	s := titleStyle.Render("imgpoll — download and show an image") + "\n"

	switch m.state.Status {
	case view.StatusFetching:
		line := fmt.Sprintf("%s fetching", m.spin.View())
		if m.state.BytesReceived > 0 {
			line += fmt.Sprintf(" — downloaded %s", view.FormatBytes(int64(m.state.BytesReceived)))
		}
		if m.state.Decoding {
			line += " — decoding"
		}
		s += statusStyle.Render(line) + "\n"
		s += helpStyle.Render("[enter] cancel  [q] quit")

	case view.StatusCanceled:
		s += statusStyle.Render(mutedStyle.Render("fetch canceled")) + "\n"
		s += helpStyle.Render("[enter] refetch another image  [q] quit")

	case view.StatusFailed:
		s += statusStyle.Render(errorStyle.Render(m.state.Error)) + "\n"
		s += helpStyle.Render("[enter] retry  [q] quit")

	case view.StatusDone:
		a := m.state.Artifact
		s += statusStyle.Render(
			labelStyle.Render("file size: ")+valueStyle.Render(view.FormatBytes(int64(a.SizeBytes)))+"\n"+
				labelStyle.Render("image size: ")+valueStyle.Render(fmt.Sprintf("%dx%d (%s)", a.Width, a.Height, a.Format))+"\n"+
				labelStyle.Render("image URL: ")+valueStyle.Render(a.URL),
		) + "\n"
		s += helpStyle.Render("[enter] refetch another image  [q] quit")

	default:
		s += helpStyle.Render("[enter] fetch  [q] quit")
	}

	return s + "\n"
}

func main() {
	cfg, err := cfgpkg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs would tear the UI apart; keep them out of the terminal.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opener := fetch.NewHTTPOpener(fetch.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.FetchTimeout,
		ChunkSize:   cfg.ChunkSize,
		MaxBodySize: cfg.MaxBodySize,
	})
	worker := fetch.NewWorker(opener, nil, nil, logger)
	service := svc.NewFetchService(worker, cfg, logger)

	p := tea.NewProgram(newModel(service, cfg))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
