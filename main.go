package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/arcadop/spiderbeats/internal/catalog"
	"github.com/arcadop/spiderbeats/internal/config"
	"github.com/arcadop/spiderbeats/internal/history"
	"github.com/arcadop/spiderbeats/internal/logging"
	"github.com/arcadop/spiderbeats/internal/playback"
	"github.com/arcadop/spiderbeats/internal/player"
	"github.com/arcadop/spiderbeats/internal/state"
)

var (
	playerBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Bold(true)

	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// titleGradient colors the app title rune by rune from red to blue.
func titleGradient(s string) string {
	start, _ := colorful.Hex("#e23636")
	end, _ := colorful.Hex("#2667ff")

	clusters := []string{}
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	if len(clusters) == 0 {
		return s
	}

	var b strings.Builder
	for i, c := range clusters {
		t := float64(i) / float64(max(len(clusters)-1, 1))
		col := start.BlendLuv(end, t)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(col.Hex())).Bold(true).Render(c))
	}
	return b.String()
}

// Subscription events re-typed as tea messages.
type (
	stateMsg    playback.StateChange
	trackMsg    playback.TrackChange
	positionMsg playback.PositionChange
	queueMsg    playback.QueueChange
	modeMsg     playback.ModeChange
	volumeMsg   playback.VolumeChange
	playErrMsg  playback.ErrorEvent

	searchResultMsg struct {
		tracks []catalog.Track
		err    error
	}
	clearStatusMsg struct{}
)

// listenForEvents relays the next session event into the program.
func listenForEvents(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return stateMsg(e)
		case e := <-sub.TrackChanged:
			return trackMsg(e)
		case e := <-sub.PositionChanged:
			return positionMsg(e)
		case e := <-sub.QueueChanged:
			return queueMsg(e)
		case e := <-sub.ModeChanged:
			return modeMsg(e)
		case e := <-sub.VolumeChanged:
			return volumeMsg(e)
		case e := <-sub.Error:
			return playErrMsg(e)
		case <-sub.Done:
			return nil
		}
	}
}

type model struct {
	session playback.Service
	sub     *playback.Subscription
	catalog *catalog.Client

	tracks    []catalog.Track
	cursor    int
	searching bool
	query     string
	status    string

	current  *catalog.Track
	playing  bool
	position time.Duration
	duration time.Duration
	volume   int
	shuffle  bool
	repeat   playback.RepeatMode

	width  int
	height int
}

func newModel(session playback.Service, client *catalog.Client) model {
	return model{
		session:  session,
		sub:      session.Subscribe(),
		catalog:  client,
		tracks:   session.QueueTracks(),
		current:  session.CurrentTrack(),
		playing:  session.IsPlaying(),
		position: session.Position(),
		duration: session.Duration(),
		volume:   session.Volume(),
		shuffle:  session.Shuffle(),
		repeat:   session.RepeatMode(),
	}
}

func (m model) Init() tea.Cmd {
	return listenForEvents(m.sub)
}

func (m model) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		tracks, err := m.catalog.SearchSongs(ctx, query, 20)
		return searchResultMsg{tracks: tracks, err: err}
	}
}

func statusCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearchInput(msg)
		}
		return m.updateKeys(msg)

	case stateMsg:
		m.playing = msg.Playing
		return m, listenForEvents(m.sub)
	case trackMsg:
		m.current = msg.Current
		m.position = 0
		m.duration = 0
		if idx := indexOf(m.tracks, msg.Current); idx >= 0 {
			m.cursor = idx
		}
		return m, listenForEvents(m.sub)
	case positionMsg:
		m.position = msg.Position
		m.duration = msg.Duration
		return m, listenForEvents(m.sub)
	case queueMsg:
		m.tracks = msg.Tracks
		if m.cursor >= len(m.tracks) {
			m.cursor = max(len(m.tracks)-1, 0)
		}
		return m, listenForEvents(m.sub)
	case modeMsg:
		m.shuffle = msg.Shuffle
		m.repeat = msg.RepeatMode
		return m, listenForEvents(m.sub)
	case volumeMsg:
		m.volume = msg.Volume
		return m, listenForEvents(m.sub)
	case playErrMsg:
		m.status = errorStyle.Render(fmt.Sprintf("%s failed: %v", msg.Operation, msg.Err))
		return m, tea.Batch(listenForEvents(m.sub), statusCmd())

	case searchResultMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("search failed: " + msg.err.Error())
			return m, statusCmd()
		}
		if len(msg.tracks) == 0 {
			m.status = dimStyle.Render("no results")
			return m, statusCmd()
		}
		m.session.ReplaceQueue(msg.tracks)
		m.cursor = 0
		return m, nil

	case clearStatusMsg:
		m.status = ""
	}
	return m, nil
}

func indexOf(tracks []catalog.Track, t *catalog.Track) int {
	if t == nil {
		return -1
	}
	for i, c := range tracks {
		if c.ID == t.ID {
			return i
		}
	}
	return -1
}

func (m model) updateSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		query := strings.TrimSpace(m.query)
		if query == "" {
			return m, nil
		}
		m.status = dimStyle.Render("searching…")
		return m, m.searchCmd(query)
	case tea.KeyEsc:
		m.searching = false
		m.query = ""
	case tea.KeyBackspace:
		if len(m.query) > 0 {
			r := []rune(m.query)
			m.query = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.query = ""
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tracks)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor >= 0 && m.cursor < len(m.tracks) {
			m.session.PlayTrack(m.tracks[m.cursor])
		}
	case " ":
		m.session.TogglePlay()
	case "n":
		m.session.Next()
	case "p":
		m.session.Previous()
	case "s":
		m.session.ToggleShuffle()
	case "r":
		m.session.CycleRepeatMode()
	case "+", "=":
		m.session.SetVolume(m.session.Volume() + 5)
	case "-":
		m.session.SetVolume(m.session.Volume() - 5)
	case "right", "l":
		m.session.SeekTo(m.session.Position() + 5*time.Second)
	case "left", "h":
		m.session.SeekTo(m.session.Position() - 5*time.Second)
	}
	return m, nil
}

const playerBarHeight = 4

func (m model) View() string {
	var b strings.Builder

	b.WriteString(" " + titleGradient("SpiderBeats"))
	if m.searching {
		b.WriteString("   " + accentStyle.Render("/"+m.query+"▌"))
	} else if m.status != "" {
		b.WriteString("   " + m.status)
	}
	b.WriteString("\n\n")

	listHeight := m.height - playerBarHeight - 3
	if listHeight < 1 {
		listHeight = 1
	}

	if len(m.tracks) == 0 {
		b.WriteString(dimStyle.Render("  queue is empty — press / to search") + "\n")
	}

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	for i := start; i < len(m.tracks) && i < start+listHeight; i++ {
		t := m.tracks[i]
		marker := "  "
		if m.current != nil && t.ID == m.current.ID {
			marker = accentStyle.Render("♪ ")
		}

		plays := ""
		if t.PlayCount > 0 {
			plays = dimStyle.Render(" · " + humanize.Comma(t.PlayCount) + " plays")
		}
		line := fmt.Sprintf("%s%s — %s%s", marker,
			runewidth.Truncate(t.Name, 40, "…"),
			runewidth.Truncate(t.PrimaryArtists, 30, "…"),
			plays)
		if i == m.cursor {
			line = selectedStyle.Render(runewidth.Truncate(fmt.Sprintf("%s — %s", t.Name, t.PrimaryArtists), max(m.width-4, 10), "…"))
			line = "> " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.playerBar())
	return b.String()
}

// playerBar renders the transport strip: status, track, progress, modes.
func (m model) playerBar() string {
	innerWidth := m.width - 2
	if innerWidth < 10 {
		innerWidth = 10
	}

	status := "■"
	if m.current != nil {
		if m.playing {
			status = "▶"
		} else {
			status = "⏸"
		}
	}

	title := "nothing playing"
	if m.current != nil {
		title = fmt.Sprintf("%s — %s", m.current.Name, m.current.PrimaryArtists)
	}

	modes := []string{fmt.Sprintf("vol %d%%", m.volume)}
	if m.shuffle {
		modes = append(modes, "shuffle")
	}
	if m.repeat != playback.RepeatOff {
		modes = append(modes, "repeat "+strings.ToLower(m.repeat.String()))
	}
	right := strings.Join(modes, "  ")

	titleMax := innerWidth - lipgloss.Width(right) - lipgloss.Width(status) - 6
	if titleMax < 5 {
		titleMax = 5
	}
	top := fmt.Sprintf(" %s  %s", status, runewidth.Truncate(title, titleMax, "…"))
	pad := innerWidth - lipgloss.Width(top) - lipgloss.Width(right) - 1
	if pad < 1 {
		pad = 1
	}
	top += strings.Repeat(" ", pad) + right

	times := fmt.Sprintf("%s / %s", formatDuration(m.position), formatDuration(m.duration))
	barWidth := innerWidth - lipgloss.Width(times) - 4
	if barWidth < 4 {
		barWidth = 4
	}
	filled := 0
	if m.duration > 0 {
		filled = int(float64(barWidth) * float64(m.position) / float64(m.duration))
		if filled > barWidth {
			filled = barWidth
		}
	}
	bar := accentStyle.Render(strings.Repeat("━", filled)) + dimStyle.Render(strings.Repeat("─", barWidth-filled))
	bottom := fmt.Sprintf(" %s %s", bar, times)

	return playerBarStyle.Width(innerWidth).Render(top + "\n" + bottom)
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := logging.Open(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	store, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	if cfg.Playback.Quality != "" {
		settings := store.LoadSettings()
		if settings.DownloadQuality != cfg.Playback.Quality {
			settings.DownloadQuality = cfg.Playback.Quality
			store.SaveSettings(settings)
		}
	}

	client := catalog.New(cfg.Catalog.URL)
	sink := player.New()
	defer sink.Close()

	recorders := []history.Recorder{history.NewLocal(store)}
	if cfg.HasHistoryEndpoint() {
		recorders = append(recorders, history.NewRemote(cfg.History.Endpoint, cfg.History.APIKey))
	}
	if cfg.HasLastfmConfig() {
		scrobbler := history.NewScrobbler(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret, cfg.Lastfm.SessionKey)
		if scrobbler.IsAuthenticated() {
			recorders = append(recorders, scrobbler)
		}
	}

	session := playback.New(sink, store, history.NewMulti(log, recorders...), log)
	defer session.Close()
	session.Start()

	log.Info().Str("catalog", cfg.Catalog.URL).Msg("starting")

	p := tea.NewProgram(newModel(session, client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
