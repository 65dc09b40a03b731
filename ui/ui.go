// Package ui provides the bubbletea program that draws the greeting page.
package ui

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/serenade/internal/cache"
	"github.com/dgnsrekt/serenade/internal/content"
	"github.com/dgnsrekt/serenade/internal/gallery"
	"github.com/dgnsrekt/serenade/internal/motion"
	"github.com/dgnsrekt/serenade/internal/particles"
	"github.com/dgnsrekt/serenade/internal/playback"
	"github.com/muesli/termenv"
	"golang.org/x/time/rate"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status bar notes like "copied!"
	ellipsis             = "…"

	defaultMaxWidth = 100
	defaultFPS      = 30

	// A stalled program should not make the particles jump.
	maxFrameStep = 100 * time.Millisecond
)

// NewProgram returns a new Tea program. The controller is already mounted;
// the program only drives it.
func NewProgram(cfg Config, page content.Page, ctrl *playback.Controller) *tea.Program {
	if cfg.Background == "" {
		cfg.Background = detectBackground()
	}
	log.Debug(
		"Starting serenade",
		"frame_rate", cfg.FrameRate,
		"particles", cfg.Particles,
		"mouse", cfg.EnableMouse,
		"background", cfg.Background,
	)

	opts := []tea.ProgramOption{tea.WithReportFocus()}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	return tea.NewProgram(newModel(cfg, page, ctrl, time.Now), opts...)
}

// detectBackground asks the terminal for its background colour so fades can
// be blended toward it.
func detectBackground() string {
	c := termenv.BackgroundColor()
	if _, ok := c.(termenv.NoColor); ok || c == nil {
		return pink50
	}
	return termenv.ConvertToRGB(c).Hex()
}

// ReloadMsg carries a freshly loaded page into a running program.
type ReloadMsg struct {
	Page content.Page
	Err  error
}

type (
	frameMsg         time.Time
	statusTimeoutMsg struct{ token playback.TimerToken }
	playStartedMsg   struct{ err error }
	imagesLoadedMsg  struct {
		mount  int
		images []gallery.Image
	}
	noteTimeoutMsg struct{}
)

type model struct {
	cfg   Config
	keys  keyMap
	help  help.Model
	clock func() time.Time

	page     content.Page
	mounts   int
	ctrl     *playback.Controller
	images   []gallery.Image
	renderer *gallery.Renderer
	field    *particles.Field

	viewport viewport.Model
	lines    []pageLine
	width    int
	height   int
	showHelp bool

	now       time.Time
	lastFrame time.Time

	heading   motion.Animator
	button    motion.Animator
	status    motion.Fader
	entrances []motion.Animator
	fades     []motion.Animator

	// Hover and tap feedback. hovered and pressed index gallery cells, -1
	// for none.
	cellScales  []motion.Fader
	buttonScale motion.Fader
	hovered     int
	pressed     int
	buttonHover bool

	// Where the button and gallery cells were last drawn, in content lines
	// and screen columns.
	buttonLine int
	buttonX0   int
	buttonX1   int
	cellBoxes  []hitBox

	note      string
	noteTimer *time.Timer

	frameLog *rate.Sometimes
}

func newModel(cfg Config, page content.Page, ctrl *playback.Controller, clock func() time.Time) model {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = defaultFPS
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = defaultMaxWidth
	}
	if cfg.NarrowBreakpoint <= 0 {
		cfg.NarrowBreakpoint = gallery.NarrowBreakpoint
	}
	if cfg.RenderCacheSize <= 0 {
		cfg.RenderCacheSize = 16 << 20
	}

	opts := particles.DefaultOptions()
	opts.FPSLimit = cfg.FrameRate
	if !cfg.Particles {
		opts.Count = 0
		opts.Density = false
		opts.PushQuantity = 0
	}

	now := clock()
	m := model{
		cfg:         cfg,
		keys:        newKeyMap(),
		help:        help.New(),
		clock:       clock,
		ctrl:        ctrl,
		renderer:    gallery.NewRenderer(cache.NewMemoryCache(cfg.RenderCacheSize), cfg.Background),
		field:       particles.New(opts, 0, 0, nil),
		viewport:    viewport.New(0, 0),
		now:         now,
		status:      motion.NewFader(0, playback.FadeDuration),
		hovered:     -1,
		pressed:     -1,
		buttonScale: motion.NewFader(1, hoverDuration),
		frameLog:    &rate.Sometimes{Interval: 5 * time.Second},
	}
	m.heading.Apply(motion.Float(), now)
	m.button.Apply(ctrl.Animation(), now)
	m.mount(page, now)
	return m
}

// mount starts the entrance animations for page.
func (m *model) mount(page content.Page, now time.Time) {
	m.page = page
	m.mounts++
	m.images = nil
	m.entrances = make([]motion.Animator, len(page.Images))
	for i := range m.entrances {
		m.entrances[i].Apply(motion.Entrance(i), now)
	}
	m.fades = make([]motion.Animator, len(page.Paragraphs))
	for i, p := range page.Paragraphs {
		m.fades[i].Apply(motion.FadeIn(p.Delay, p.Duration), now)
	}
	m.cellScales = make([]motion.Fader, len(page.Images))
	for i := range m.cellScales {
		m.cellScales[i] = motion.NewFader(1, hoverDuration)
	}
	m.hovered, m.pressed = -1, -1
	m.cellBoxes = nil
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "images", len(m.page.Images))
	return tea.Batch(loadImages(m.cfg.AssetsDir, m.page, m.mounts), m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.unmount()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Toggle):
			return m, m.toggle()

		case key.Matches(msg, m.keys.Copy):
			greeting := m.page.Markdown()
			// Copy using OSC 52
			termenv.Copy(greeting)
			// Copy using native system clipboard
			_ = clipboard.WriteAll(greeting)
			return m, m.showStatusMessage("Copied greeting")

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.setSize(m.width, m.height)
			if m.viewport.PastBottom() {
				m.viewport.GotoBottom()
			}
			return m, nil

		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil

		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil

		case msg.String() == "ctrl+z":
			return m, tea.Suspend
		}

	case tea.MouseMsg:
		if cmd, ok := m.handleMouse(msg); ok {
			return m, cmd
		}

	case tea.BlurMsg:
		m.field.Leave()
		m.hover(-1, -1)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case frameMsg:
		m.frame(time.Time(msg))
		return m, m.tick()

	case statusTimeoutMsg:
		if m.ctrl.Expire(msg.token) {
			m.status.Set(0, m.clock())
		}
		return m, nil

	case playStartedMsg:
		m.ctrl.StartFailed(msg.err)
		return m, nil

	case imagesLoadedMsg:
		// A reload may have replaced the page while these were decoding.
		if msg.mount != m.mounts {
			return m, nil
		}
		m.images = msg.images
		m.renderer.Reset()
		m.render(m.now)
		return m, nil

	case ReloadMsg:
		if msg.Err != nil {
			log.Warn("Unable to reload page", "error", msg.Err)
			return m, m.showStatusMessage("Couldn't reload page")
		}
		if msg.Page.Track != m.page.Track {
			log.Info("Track changes apply on next launch", "track", msg.Page.Track)
		}
		m.mount(msg.Page, m.clock())
		m.render(m.now)
		return m, tea.Batch(loadImages(m.cfg.AssetsDir, m.page, m.mounts), m.showStatusMessage("Reloaded page"))

	case noteTimeoutMsg:
		m.note = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// toggle presses the music button.
func (m *model) toggle() tea.Cmd {
	now := m.clock()
	effect, token := m.ctrl.Toggle()
	m.button.Apply(effect.Animation, now)
	m.status.Set(1, now)
	m.render(now)

	cmds := []tea.Cmd{expireStatus(token, m.ctrl.StatusTimeout())}
	if effect.Started != nil {
		cmds = append(cmds, waitForPlayback(effect.Started))
	}
	return tea.Batch(cmds...)
}

// unmount stops the music and releases the track before the program exits.
func (m *model) unmount() {
	if m.noteTimer != nil {
		m.noteTimer.Stop()
	}
	if err := m.ctrl.Close(); err != nil {
		log.Error("Error releasing track", "error", err)
	}
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Cmd, bool) {
	switch msg.Action { //nolint:exhaustive
	case tea.MouseActionMotion:
		if msg.Y < m.viewport.Height {
			m.field.Hover(msg.X, msg.Y)
		} else {
			m.field.Leave()
		}
		m.hover(msg.X, msg.Y)
		return nil, true

	case tea.MouseActionPress:
		// Wheel events fall through to the viewport.
		if msg.Button != tea.MouseButtonLeft {
			return nil, false
		}
		if m.onButton(msg.X, msg.Y) {
			return m.toggle(), true
		}
		if msg.Y < m.viewport.Height {
			m.field.Push(msg.X, msg.Y)
		}
		m.pressed = m.cellAt(msg.X, msg.Y)
		m.updateScales(m.clock())
		return nil, true

	case tea.MouseActionRelease:
		m.pressed = -1
		m.updateScales(m.clock())
		return nil, true
	}
	return nil, false
}

// hover moves the pointer to x, y. Negative coordinates mean the pointer
// left the window.
func (m *model) hover(x, y int) {
	if x < 0 || y < 0 {
		m.hovered, m.pressed = -1, -1
		m.buttonHover = false
	} else {
		m.hovered = m.cellAt(x, y)
		m.buttonHover = m.onButton(x, y)
	}
	m.updateScales(m.clock())
}

func (m *model) updateScales(now time.Time) {
	for i := range m.cellScales {
		target := 1.0
		switch i {
		case m.pressed:
			target = galleryTapScale
		case m.hovered:
			target = galleryHoverScale
		}
		m.cellScales[i].Set(target, now)
	}
	if m.buttonHover {
		m.buttonScale.Set(buttonHoverScale, now)
	} else {
		m.buttonScale.Set(1, now)
	}
}

// cellAt returns the gallery cell under x, y, or -1.
func (m model) cellAt(x, y int) int {
	if y < 0 || y >= m.viewport.Height {
		return -1
	}
	line := y + m.viewport.YOffset
	for i, box := range m.cellBoxes {
		if box.contains(x, line) {
			return i
		}
	}
	return -1
}

func (m model) onButton(x, y int) bool {
	if y >= m.viewport.Height {
		return false
	}
	return y+m.viewport.YOffset == m.buttonLine && x >= m.buttonX0 && x < m.buttonX1
}

// frame advances every animation to t.
func (m *model) frame(t time.Time) {
	dt := time.Duration(0)
	if !m.lastFrame.IsZero() {
		dt = min(t.Sub(m.lastFrame), maxFrameStep)
	}
	m.lastFrame = t
	m.now = t

	m.field.Step(dt)
	m.button.Apply(m.ctrl.Animation(), t)
	if m.ctrl.ShowMessage() {
		m.status.Set(1, t)
	} else {
		m.status.Set(0, t)
	}
	m.render(t)

	m.frameLog.Do(func() {
		stats := m.renderer.Stats()
		log.Debug("frame",
			"dt", dt,
			"particles", len(m.field.Particles()),
			"playing", m.ctrl.IsPlaying(),
			"cache_items", stats.ItemCount,
			"cache_hit_rate", stats.HitRate(),
		)
	})
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.help.Width = w

	footer := statusLineHeight + statusBarHeight
	if m.showHelp {
		footer += helpHeight(m.helpView())
	}
	m.viewport.Width = min(w, m.cfg.MaxWidth)
	m.viewport.Height = max(h-footer, 0)
	m.field.Resize(w, m.viewport.Height)
	m.render(m.now)
}

// contentLeft is the screen column the content column starts at.
func (m model) contentLeft() int {
	return max(m.width-m.viewport.Width, 0) / 2
}

func (m *model) showStatusMessage(note string) tea.Cmd {
	m.note = note
	if m.noteTimer != nil {
		m.noteTimer.Stop()
	}
	m.noteTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(m.noteTimer)
}

// COMMANDS

func (m model) tick() tea.Cmd {
	return tea.Tick(m.field.FrameInterval(), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// expireStatus fires once for every toggle. Later toggles do not cancel it.
func expireStatus(token playback.TimerToken, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusTimeoutMsg{token}
	})
}

func waitForPlayback(started <-chan error) tea.Cmd {
	return func() tea.Msg {
		return playStartedMsg{<-started}
	}
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return noteTimeoutMsg{}
	}
}

func loadImages(dir string, page content.Page, mount int) tea.Cmd {
	return func() tea.Msg {
		paths := make([]string, len(page.Images))
		for i, img := range page.Images {
			paths[i] = content.Resolve(dir, img)
		}
		images := gallery.Load(paths, page.AltText)
		for _, img := range images {
			if img.Err != nil {
				log.Warn("Unable to load image", "path", img.Path, "error", img.Err)
			}
		}
		return imagesLoadedMsg{mount: mount, images: images}
	}
}
