package ui

import (
	"errors"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/serenade/internal/audio"
	"github.com/dgnsrekt/serenade/internal/content"
	"github.com/dgnsrekt/serenade/internal/motion"
	"github.com/dgnsrekt/serenade/internal/playback"
	"github.com/muesli/reflow/ansi"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	m      model
	player *audio.MockPlayer
	ctrl   *playback.Controller
	clock  *fakeClock
}

func newFixture(t *testing.T, opts playback.Options) *fixture {
	t.Helper()
	player := audio.DefaultMockPlayer()
	ctrl := playback.New(player, opts)
	t.Cleanup(func() { _ = ctrl.Close() })

	clock := &fakeClock{t: time.Date(2024, 11, 3, 20, 0, 0, 0, time.UTC)}
	cfg := Config{
		AssetsDir:  t.TempDir(),
		Particles:  true,
		Background: pink50,
		FrameRate:  30,
	}
	f := &fixture{
		m:      newModel(cfg, content.Default(), ctrl, clock.Now),
		player: player,
		ctrl:   ctrl,
		clock:  clock,
	}
	f.send(tea.WindowSizeMsg{Width: 100, Height: 200})
	return f
}

func (f *fixture) send(msg tea.Msg) tea.Cmd {
	next, cmd := f.m.Update(msg)
	f.m = next.(model)
	return cmd
}

// wait advances the clock and delivers a frame.
func (f *fixture) wait(d time.Duration) {
	f.clock.Advance(d)
	f.send(frameMsg(f.clock.Now()))
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestInitialView(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	view := f.m.View()

	if !strings.Contains(view, "Happy Birthday Amope!") {
		t.Error("heading missing from view")
	}
	if !strings.Contains(view, playback.PlayLabel) {
		t.Errorf("button should read %q", playback.PlayLabel)
	}
	for _, msg := range []string{playback.PlayingMessage, playback.PausedMessage} {
		if strings.Contains(view, msg) {
			t.Errorf("status line should be hidden on mount, found %q", msg)
		}
	}
	if f.player.Metrics().PlayCount != 0 {
		t.Error("mount must not autoplay")
	}
	if got := strings.Count(view, "\n") + 1; got != 200 {
		t.Errorf("view height = %d, want 200", got)
	}
}

func TestToggleShowsStatus(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())

	if cmd := f.send(enterKey); cmd == nil {
		t.Fatal("toggle should schedule the status timer")
	}
	if !f.ctrl.IsPlaying() || f.player.State() != audio.StatePlaying {
		t.Fatal("music should be playing after toggle")
	}

	f.wait(playback.FadeDuration + 100*time.Millisecond)
	view := f.m.View()
	if !strings.Contains(view, playback.PauseLabel) {
		t.Errorf("button should read %q", playback.PauseLabel)
	}
	if !strings.Contains(view, playback.PlayingMessage) {
		t.Errorf("status line should read %q", playback.PlayingMessage)
	}
	if f.m.button.Spec().Name != motion.PulseSpin().Name {
		t.Errorf("button animation = %q, want pulse-spin", f.m.button.Spec().Name)
	}

	f.send(statusTimeoutMsg{playback.TimerToken{Generation: 1}})
	f.wait(playback.FadeDuration + 100*time.Millisecond)
	if strings.Contains(f.m.View(), playback.PlayingMessage) {
		t.Error("status line should fade out after the timer fires")
	}
	if !f.ctrl.IsPlaying() {
		t.Error("hiding the status line must not stop the music")
	}
}

func TestDoubleToggle(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())

	f.send(spaceKey)
	f.send(spaceKey)
	f.wait(playback.FadeDuration + 100*time.Millisecond)

	view := f.m.View()
	if f.ctrl.IsPlaying() {
		t.Fatal("two toggles should leave the music paused")
	}
	if !strings.Contains(view, playback.PlayLabel) {
		t.Errorf("button should read %q", playback.PlayLabel)
	}
	if !strings.Contains(view, playback.PausedMessage) {
		t.Errorf("status line should read %q", playback.PausedMessage)
	}
	if !f.m.button.Spec().IsNone() {
		t.Error("button should stop animating when paused")
	}
	m := f.player.Metrics()
	if m.PlayCount != 1 || m.PauseCount != 1 {
		t.Errorf("play/pause = %d/%d, want 1/1", m.PlayCount, m.PauseCount)
	}
}

func TestStaleTimerHidesNewerMessage(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())

	f.send(enterKey)
	f.clock.Advance(2 * time.Second)
	f.send(enterKey)

	// The first toggle's timer still hides the second toggle's message.
	f.send(statusTimeoutMsg{playback.TimerToken{Generation: 1}})
	if f.ctrl.ShowMessage() {
		t.Error("stale timer should hide the status line")
	}
}

func TestStaleTimerIgnoredWhenCancelling(t *testing.T) {
	opts := playback.DefaultOptions()
	opts.CancelStaleTimers = true
	f := newFixture(t, opts)

	f.send(enterKey)
	f.send(enterKey)
	f.send(statusTimeoutMsg{playback.TimerToken{Generation: 1}})
	if !f.ctrl.ShowMessage() {
		t.Error("stale timer should be ignored")
	}
	f.send(statusTimeoutMsg{playback.TimerToken{Generation: 2}})
	if f.ctrl.ShowMessage() {
		t.Error("current timer should hide the status line")
	}
}

func TestPlaybackFailureKeepsState(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())

	f.send(playStartedMsg{errors.New("device busy")})
	f.send(enterKey)
	f.send(playStartedMsg{errors.New("device busy")})
	if !f.ctrl.IsPlaying() {
		t.Error("a failed start must not roll back the playing flag")
	}
}

func TestClickButton(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())

	y := f.m.buttonLine - f.m.viewport.YOffset
	if y < 0 || y >= f.m.viewport.Height {
		t.Fatalf("button line %d is not on screen", f.m.buttonLine)
	}
	f.send(tea.MouseMsg{
		X:      f.m.buttonX0,
		Y:      y,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	if !f.ctrl.IsPlaying() {
		t.Error("clicking the button should start the music")
	}
}

func TestClickPushesParticles(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	before := len(f.m.field.Particles())

	f.send(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	if got := len(f.m.field.Particles()); got != before+4 {
		t.Errorf("particles = %d, want %d", got, before+4)
	}
	if f.ctrl.IsPlaying() {
		t.Error("clicking the background must not toggle the music")
	}
}

func TestGalleryEntranceStagger(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	start := f.clock.Now()

	for i := range f.m.entrances {
		delay := time.Duration(i) * motion.StaggerDelay
		e := f.m.entrances[i]
		if got := e.Value(motion.Opacity, start.Add(delay)); got != 0 {
			t.Errorf("image %d opacity at its delay = %v, want 0", i, got)
		}
		if got := e.Value(motion.Scale, start.Add(delay)); got != 0.8 {
			t.Errorf("image %d scale at its delay = %v, want 0.8", i, got)
		}
		done := start.Add(delay + motion.EntranceDuration)
		if got := e.Value(motion.Opacity, done); got != 1 {
			t.Errorf("image %d opacity after entrance = %v, want 1", i, got)
		}
	}
}

func TestMissingImagesShowPlaceholders(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())

	msg := loadImages(f.m.cfg.AssetsDir, f.m.page, f.m.mounts)()
	images, ok := msg.(imagesLoadedMsg)
	if !ok || len(images.images) != 4 {
		t.Fatalf("loadImages() = %T", msg)
	}
	f.send(msg)
	f.wait(2 * time.Second)

	view := f.m.View()
	for _, alt := range []string{"Love Story Image 1", "Love Story Image 4"} {
		if !strings.Contains(view, alt) {
			t.Errorf("placeholder %q missing", alt)
		}
	}
}

// writeImages writes a w x h png for every image of page.
func writeImages(t *testing.T, dir string, page content.Page, w, h int) {
	t.Helper()
	for _, name := range page.Images {
		f, err := os.Create(content.Resolve(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
			t.Fatal(err)
		}
		_ = f.Close()
	}
}

func TestReloadRedrawsChangedImages(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	dir := f.m.cfg.AssetsDir

	writeImages(t, dir, f.m.page, 8, 2)
	f.send(loadImages(dir, f.m.page, f.m.mounts)())
	f.wait(2 * time.Second)
	wide := strings.Count(f.m.View(), "▀")
	if wide == 0 {
		t.Fatal("images were not drawn")
	}

	// Same paths, new pixels.
	writeImages(t, dir, f.m.page, 2, 6)
	f.send(ReloadMsg{Page: f.m.page})
	f.send(loadImages(dir, f.m.page, f.m.mounts)())
	f.wait(2 * time.Second)
	if tall := strings.Count(f.m.View(), "▀"); tall == wide {
		t.Errorf("reload still draws the old images (%d blocks)", tall)
	}
}

func TestStaleImagesIgnored(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	stale := loadImages(f.m.cfg.AssetsDir, f.m.page, f.m.mounts)()

	// Same number of images, different page.
	page := content.Default()
	page.Alt = "Reloaded %d"
	f.send(ReloadMsg{Page: page})
	f.send(stale)
	if f.m.images != nil {
		t.Error("images decoded for the previous page were kept")
	}

	f.send(loadImages(f.m.cfg.AssetsDir, f.m.page, f.m.mounts)())
	if len(f.m.images) != len(page.Images) {
		t.Errorf("images = %d, want %d", len(f.m.images), len(page.Images))
	}
}

func TestNarrowTerminal(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	f.send(enterKey)
	const height = 30

	for w := 1; w <= 40; w++ {
		for _, help := range []bool{false, true} {
			if f.m.showHelp != help {
				f.send(runeKey('?'))
			}
			f.send(tea.WindowSizeMsg{Width: w, Height: height})
			f.wait(100 * time.Millisecond)

			lines := strings.Split(f.m.View(), "\n")
			for i, l := range lines {
				if got := ansi.PrintableRuneWidth(l); got > w {
					t.Errorf("width %d, help %v: line %d is %d cells wide", w, help, i, got)
				}
			}
			if !help && len(lines) != height {
				t.Errorf("width %d: view height = %d, want %d", w, len(lines), height)
			}
		}
	}
}

func TestHoverGallery(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	if len(f.m.cellBoxes) == 0 {
		t.Fatal("gallery was not laid out")
	}
	box := f.m.cellBoxes[1]
	x, y := box.x0, box.line0-f.m.viewport.YOffset

	f.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion})
	if f.m.hovered != 1 {
		t.Fatalf("hovered = %d, want 1", f.m.hovered)
	}
	if got := f.m.cellScales[1].Target(); got != galleryHoverScale {
		t.Errorf("hover scale = %v, want %v", got, galleryHoverScale)
	}
	if got := f.m.cellScales[0].Target(); got != 1 {
		t.Errorf("other image scale = %v, want 1", got)
	}

	before := len(f.m.field.Particles())
	f.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := f.m.cellScales[1].Target(); got != galleryTapScale {
		t.Errorf("tap scale = %v, want %v", got, galleryTapScale)
	}
	if len(f.m.field.Particles()) <= before {
		t.Error("tapping an image should still push particles")
	}

	f.send(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if got := f.m.cellScales[1].Target(); got != galleryHoverScale {
		t.Errorf("scale after release = %v, want %v", got, galleryHoverScale)
	}

	f.send(tea.BlurMsg{})
	if got := f.m.cellScales[1].Target(); got != 1 {
		t.Errorf("scale after leaving = %v, want 1", got)
	}
}

func TestHoverButton(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	width := f.m.buttonX1 - f.m.buttonX0
	y := f.m.buttonLine - f.m.viewport.YOffset

	f.send(tea.MouseMsg{X: f.m.buttonX0, Y: y, Action: tea.MouseActionMotion})
	if got := f.m.buttonScale.Target(); got != buttonHoverScale {
		t.Errorf("button scale = %v, want %v", got, buttonHoverScale)
	}
	f.wait(hoverDuration + 50*time.Millisecond)
	if got := f.m.buttonX1 - f.m.buttonX0; got <= width {
		t.Errorf("hovered button width = %d, want more than %d", got, width)
	}
	if f.ctrl.IsPlaying() {
		t.Error("hovering must not toggle the music")
	}

	f.send(tea.MouseMsg{X: 0, Y: y, Action: tea.MouseActionMotion})
	if got := f.m.buttonScale.Target(); got != 1 {
		t.Errorf("button scale after leaving = %v, want 1", got)
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	f.send(enterKey)

	page := content.Default()
	page.Heading = "Happy Birthday, Ada!"
	if cmd := f.send(ReloadMsg{Page: page}); cmd == nil {
		t.Error("reload should load the new images")
	}
	if !strings.Contains(f.m.View(), "Happy Birthday, Ada!") {
		t.Error("reloaded heading missing from view")
	}
	if !f.ctrl.IsPlaying() {
		t.Error("reloading the page must not touch playback")
	}

	f.send(ReloadMsg{Err: errors.New("bad yaml")})
	if f.m.note != "Couldn't reload page" {
		t.Errorf("note = %q", f.m.note)
	}
}

func TestQuitReleasesTrack(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	f.send(enterKey)

	cmd := f.send(runeKey('q'))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit should quit the program")
	}
	if f.player.State() != audio.StateClosed {
		t.Errorf("track state = %v, want closed", f.player.State())
	}
}

func TestHelpShrinksViewport(t *testing.T) {
	f := newFixture(t, playback.DefaultOptions())
	before := f.m.viewport.Height

	f.send(runeKey('?'))
	if !f.m.showHelp {
		t.Fatal("help should be shown")
	}
	if f.m.viewport.Height >= before {
		t.Errorf("viewport height = %d, want less than %d", f.m.viewport.Height, before)
	}
	if got := strings.Count(f.m.View(), "\n") + 1; got != 200 {
		t.Errorf("view height with help = %d, want 200", got)
	}
}

func TestSpinGlyph(t *testing.T) {
	tests := []struct {
		degrees float64
		want    string
	}{
		{0, "◐"},
		{95, "◓"},
		{180, "◑"},
		{359, "◒"},
		{360, "◐"},
		{-10, "◒"},
	}
	for _, tt := range tests {
		if got := spinGlyph(tt.degrees); got != tt.want {
			t.Errorf("spinGlyph(%v) = %q, want %q", tt.degrees, got, tt.want)
		}
	}
}
