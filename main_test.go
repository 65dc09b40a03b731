package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/glamour/styles"
	"github.com/dgnsrekt/serenade/internal/content"
	"gopkg.in/yaml.v3"
)

func TestRootFlags(t *testing.T) {
	tt := []struct {
		args  []string
		check func() bool
	}{
		{
			args: []string{"-p"},
			check: func() bool {
				return plain
			},
		},
		{
			args: []string{"--volume", "0.25"},
			check: func() bool {
				return volume == 0.25
			},
		},
		{
			args: []string{"-w", "72"},
			check: func() bool {
				return width == 72
			},
		},
		{
			args: []string{"--watch"},
			check: func() bool {
				return watch
			},
		},
	}

	for _, v := range tt {
		err := rootCmd.ParseFlags(v.args)
		if err != nil {
			t.Fatal(err)
		}
		if !v.check() {
			t.Errorf("Parsing flag failed: %s", v.args)
		}
	}
}

func setPaths(t *testing.T, content, assets string) {
	t.Helper()
	oldContent, oldAssets := contentPath, assetsDir
	contentPath, assetsDir = content, assets
	t.Cleanup(func() { contentPath, assetsDir = oldContent, oldAssets })
}

func TestResolvePage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yml")
	if err := os.WriteFile(path, []byte("heading: Happy Birthday, Ada!\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		content string
		assets  string
		args    []string
		heading string
		dir     string
	}{
		{"built-in", "", "", nil, content.Default().Heading, "."},
		{"argument", "", "", []string{path}, "Happy Birthday, Ada!", dir},
		{"config", path, "", nil, "Happy Birthday, Ada!", dir},
		{"assets override", path, "/srv/public", nil, "Happy Birthday, Ada!", "/srv/public"},
		{"built-in with assets", "", "/srv/public", nil, content.Default().Heading, "/srv/public"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setPaths(t, tt.content, tt.assets)
			src, err := resolvePage(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if src.page.Heading != tt.heading {
				t.Errorf("heading = %q, want %q", src.page.Heading, tt.heading)
			}
			if src.dir != tt.dir {
				t.Errorf("dir = %q, want %q", src.dir, tt.dir)
			}
		})
	}
}

func TestResolvePageMissingFile(t *testing.T) {
	setPaths(t, "", "")
	if _, err := resolvePage([]string{filepath.Join(t.TempDir(), "nope.yml")}); err == nil {
		t.Error("expected an error for a missing page")
	}
}

func TestValidateStyle(t *testing.T) {
	tests := []struct {
		style   string
		wantErr bool
	}{
		{styles.AutoStyle, false},
		{styles.DarkStyle, false},
		{styles.NoTTYStyle, false},
		{filepath.Join(t.TempDir(), "missing.json"), true},
	}
	for _, tt := range tests {
		if err := validateStyle(tt.style); (err != nil) != tt.wantErr {
			t.Errorf("validateStyle(%q) error = %v, wantErr %v", tt.style, err, tt.wantErr)
		}
	}
}

func TestEnsureConfigFile(t *testing.T) {
	old := configFile
	t.Cleanup(func() { configFile = old })

	configFile = filepath.Join(t.TempDir(), "nested", "serenade.yml")
	if err := ensureConfigFile(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatal(err)
	}

	var cfg map[string]any
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		t.Fatalf("default config is not valid YAML: %v", err)
	}
	want := map[string]any{
		"width":             100,
		"breakpoint":        80,
		"mouse":             true,
		"volume":            1.0,
		"cancelStaleTimers": false,
	}
	for k, v := range want {
		if cfg[k] != v {
			t.Errorf("%s = %v, want %v", k, cfg[k], v)
		}
	}

	configFile = filepath.Join(t.TempDir(), "serenade.toml")
	if err := ensureConfigFile(); err == nil {
		t.Error("expected an error for a non-YAML config file")
	}
}

func TestInventory(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "temi1.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	page := content.Default()
	rows := inventory(page, dir)
	if len(rows) != 1+len(page.Images) {
		t.Fatalf("rows = %d, want %d", len(rows), 1+len(page.Images))
	}
	if rows[0].kind != "track" || rows[0].detail != "missing" {
		t.Errorf("track row = %+v", rows[0])
	}
	if rows[1].detail != "png 4x3" {
		t.Errorf("image detail = %q, want %q", rows[1].detail, "png 4x3")
	}
	if !strings.Contains(rows[2].detail, "Love Story Image 2") {
		t.Errorf("missing image detail = %q", rows[2].detail)
	}

	var buf bytes.Buffer
	if err := writeInfo(&buf, page, dir); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"Gratitude.mp3", "temi1.jpg", "couple2.jpg"} {
		if !strings.Contains(out, s) {
			t.Errorf("info output missing %q", s)
		}
	}
}

func TestExecuteCLI(t *testing.T) {
	oldStyle, oldWidth := style, width
	t.Cleanup(func() { style, width = oldStyle, oldWidth })
	style, width = styles.NoTTYStyle, 80

	var buf bytes.Buffer
	if err := executeCLI(content.Default(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Happy Birthday Amope!") {
		t.Errorf("plain output missing heading:\n%s", buf.String())
	}
}
