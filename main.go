// Package main provides the entry point for the serenade CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/serenade/internal/audio"
	"github.com/dgnsrekt/serenade/internal/content"
	"github.com/dgnsrekt/serenade/internal/lifecycle"
	"github.com/dgnsrekt/serenade/internal/playback"
	"github.com/dgnsrekt/serenade/ui"
	"github.com/dgnsrekt/serenade/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const defaultWidth = 100

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	contentPath       string
	assetsDir         string
	plain             bool
	style             string
	width             uint
	breakpoint        int
	mouse             bool
	watch             bool
	volume            float64
	cancelStaleTimers bool

	rootCmd = &cobra.Command{
		Use:   "serenade [PAGE]",
		Short: "A birthday greeting with music, in your terminal",
		Long: paragraph(
			fmt.Sprintf("\nA birthday greeting for the terminal, %s.", keyword("with a song")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"yml", "yaml"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// pageSource is a page together with where it came from.
type pageSource struct {
	page content.Page
	path string // empty for the built-in page
	dir  string // where the page's assets live
}

// resolvePage loads the page named in args, the config, or the built-in
// one, in that order.
func resolvePage(args []string) (pageSource, error) {
	path := contentPath
	if len(args) > 0 {
		path = args[0]
	}
	path = utils.ExpandPath(path)

	src := pageSource{page: content.Default(), path: path}
	if path != "" {
		page, err := content.Load(path)
		if err != nil {
			return pageSource{}, err //nolint:wrapcheck
		}
		src.page = page
	}

	src.dir = utils.ExpandPath(assetsDir)
	if src.dir == "" && path != "" {
		src.dir = filepath.Dir(path)
	}
	if src.dir == "" {
		src.dir = "."
	}
	return src, nil
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	contentPath = viper.GetString("content")
	assetsDir = viper.GetString("assets")
	width = viper.GetUint("width")
	breakpoint = viper.GetInt("breakpoint")
	mouse = viper.GetBool("mouse")
	watch = viper.GetBool("watch")
	volume = viper.GetFloat64("volume")
	cancelStaleTimers = viper.GetBool("cancelStaleTimers")

	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %.2f", volume)
	}
	if breakpoint < 0 {
		return fmt.Errorf("breakpoint must not be negative, got %d", breakpoint)
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = styles.NoTTYStyle
	}

	if width == 0 {
		width = defaultWidth
	}
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	src, err := resolvePage(args)
	if err != nil {
		return err
	}

	// The page needs a terminal; anywhere else it is printed.
	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return executeCLI(src.page, os.Stdout)
	}
	return runTUI(src)
}

func executeCLI(page content.Page, w io.Writer) error {
	wrap := int(width) //nolint:gosec
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			wrap = min(wrap, tw)
		}
	}

	// initialize glamour
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		utils.GlamourStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}

	out, err := r.Render(page.Markdown())
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	if _, err = fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func runTUI(src pageSource) (err error) {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.AssetsDir = src.dir
	cfg.ContentPath = src.path
	cfg.EnableMouse = mouse
	cfg.MaxWidth = int(width) //nolint:gosec
	cfg.NarrowBreakpoint = breakpoint
	cfg.WatchContent = watch && src.path != ""

	playerCfg := audio.DefaultPlayerConfig()
	playerCfg.Volume = volume
	player, err := audio.NewPlayer(content.Resolve(src.dir, src.page.Track), playerCfg)
	if err != nil {
		return fmt.Errorf("unable to create player: %w", err)
	}

	opts := playback.DefaultOptions()
	opts.CancelStaleTimers = cancelStaleTimers
	ctrl := playback.New(player, opts)

	var program *tea.Program
	lm := lifecycle.New(lifecycle.OnSignal(func(os.Signal) {
		if program != nil {
			program.Quit()
		}
	}))
	lm.Register(ctrl)
	// The track is released however runTUI exits, panics included.
	defer func() {
		if shutdownErr := lm.Shutdown(); shutdownErr != nil {
			log.Error("Error during shutdown", "error", shutdownErr)
			err = errors.Join(err, shutdownErr)
		}
	}()

	program = ui.NewProgram(cfg, src.page, ctrl)
	lm.Start()

	if cfg.WatchContent {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		reload := func(page content.Page, err error) {
			program.Send(ui.ReloadMsg{Page: page, Err: err})
		}
		if err := content.Watch(ctx, src.path, reload); err != nil {
			log.Warn("Unable to watch page", "path", src.path, "error", err)
		}
	}

	// Run Bubble Tea program
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&assetsDir, "assets", "a", "", "directory holding the page's images and track")
	rootCmd.Flags().StringVarP(&contentPath, "content", "c", "", "page content file (default: built-in page)")
	rootCmd.Flags().BoolVarP(&plain, "plain", "p", false, "print the page instead of opening it")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path for plain output")
	rootCmd.Flags().UintVarP(&width, "width", "w", defaultWidth, "width of the page column")
	rootCmd.Flags().IntVar(&breakpoint, "breakpoint", 80, "terminal width below which the gallery has one column")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", true, "enable mouse support")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reload the page when its content file changes")
	rootCmd.Flags().Float64Var(&volume, "volume", 1.0, "music volume, from 0.0 to 1.0")
	rootCmd.Flags().BoolVar(&cancelStaleTimers, "cancel-stale-timers", false, "only let the latest toggle hide the status message")
	_ = rootCmd.Flags().MarkHidden("cancel-stale-timers")

	// Config bindings
	_ = viper.BindPFlag("content", rootCmd.Flags().Lookup("content"))
	_ = viper.BindPFlag("assets", rootCmd.PersistentFlags().Lookup("assets"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("breakpoint", rootCmd.Flags().Lookup("breakpoint"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("watch", rootCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("cancelStaleTimers", rootCmd.Flags().Lookup("cancel-stale-timers"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", defaultWidth)
	viper.SetDefault("breakpoint", 80)
	viper.SetDefault("mouse", true)
	viper.SetDefault("volume", 1.0)

	rootCmd.AddCommand(configCmd, manCmd, infoCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "serenade")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "serenade")}, dirs...)
	}

	if c := os.Getenv("SERENADE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("serenade")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("serenade")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], "serenade.yml")
	configFile = defaultConfigFile
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
