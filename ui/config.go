package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Directory the page's images and track are resolved against.
	AssetsDir string
	// Page content file, if one was given. Empty means the embedded page.
	ContentPath string

	EnableMouse      bool
	MaxWidth         int
	NarrowBreakpoint int
	WatchContent     bool

	// For debugging the UI
	FrameRate       int    `env:"SERENADE_FRAME_RATE"      envDefault:"30"`
	Particles       bool   `env:"SERENADE_PARTICLES"       envDefault:"true"`
	Background      string `env:"SERENADE_BACKGROUND"`
	RenderCacheSize int64  `env:"SERENADE_RENDER_CACHE"    envDefault:"16777216"`
	AltScreen       bool   `env:"SERENADE_ALT_SCREEN"      envDefault:"true"`
}
