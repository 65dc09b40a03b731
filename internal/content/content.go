// Package content describes what the greeting page says and shows: the
// headline, the gallery images, the paragraphs and the music track. A
// default page is embedded; a YAML file can override any part of it.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultPage []byte

// ErrInvalidPage is wrapped by every validation failure.
var ErrInvalidPage = errors.New("invalid page")

// Emphasis is how a paragraph is set.
type Emphasis string

const (
	Plain  Emphasis = ""
	Bold   Emphasis = "bold"
	Italic Emphasis = "italic"
)

// Paragraph is one block of text that fades in after the page mounts.
type Paragraph struct {
	Text     string        `yaml:"text"`
	Emphasis Emphasis      `yaml:"emphasis"`
	Color    string        `yaml:"color"`
	Delay    time.Duration `yaml:"delay"`
	Duration time.Duration `yaml:"duration"`
}

// Page is the full content of the greeting page.
type Page struct {
	Heading    string      `yaml:"heading"`
	Track      string      `yaml:"track"`
	Images     []string    `yaml:"images"`
	Alt        string      `yaml:"alt"`
	Paragraphs []Paragraph `yaml:"paragraphs"`
}

// Default returns the embedded page.
func Default() Page {
	var p Page
	if err := yaml.Unmarshal(defaultPage, &p); err != nil {
		panic(fmt.Sprintf("embedded page is invalid: %v", err))
	}
	return p
}

// Parse reads a page from YAML. Fields the document leaves out keep their
// default values.
func Parse(b []byte) (Page, error) {
	p := Default()
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Page{}, fmt.Errorf("unable to parse page: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// Load reads a page from a YAML file.
func Load(path string) (Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("unable to read page: %w", err)
	}
	return Parse(b)
}

// Validate checks that the page can be rendered.
func (p Page) Validate() error {
	if strings.TrimSpace(p.Heading) == "" {
		return fmt.Errorf("%w: heading is empty", ErrInvalidPage)
	}
	if strings.TrimSpace(p.Track) == "" {
		return fmt.Errorf("%w: track is empty", ErrInvalidPage)
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: image %d has no path", ErrInvalidPage, i+1)
		}
	}
	for i, para := range p.Paragraphs {
		switch para.Emphasis {
		case Plain, Bold, Italic:
		default:
			return fmt.Errorf("%w: paragraph %d has unknown emphasis %q", ErrInvalidPage, i+1, para.Emphasis)
		}
		if para.Color != "" {
			if _, err := colorful.Hex(para.Color); err != nil {
				return fmt.Errorf("%w: paragraph %d colour %q: %v", ErrInvalidPage, i+1, para.Color, err)
			}
		}
		if para.Delay < 0 || para.Duration < 0 {
			return fmt.Errorf("%w: paragraph %d has a negative timing", ErrInvalidPage, i+1)
		}
	}
	return nil
}

// AltText is the description shown for image i when it cannot be drawn.
// Every %d in the page's alt text becomes the image's number.
func (p Page) AltText(i int) string {
	if strings.Contains(p.Alt, "%d") {
		return strings.ReplaceAll(p.Alt, "%d", strconv.Itoa(i+1))
	}
	if p.Alt == "" {
		return filepath.Base(p.Images[i])
	}
	return p.Alt
}

// Resolve maps an asset path from the page to a file under dir. Leading
// slashes are dropped, so "/song.mp3" and "song.mp3" name the same file.
func Resolve(dir, asset string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.TrimLeft(asset, "/")))
}

// Markdown renders the page as a markdown document.
func (p Page) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Heading)
	for i, img := range p.Images {
		fmt.Fprintf(&b, "![%s](%s)\n", p.AltText(i), img)
	}
	if len(p.Images) > 0 {
		b.WriteString("\n")
	}
	for _, para := range p.Paragraphs {
		text := strings.TrimSpace(para.Text)
		switch para.Emphasis {
		case Bold:
			text = "**" + text + "**"
		case Italic:
			text = "*" + text + "*"
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "♫ %s\n", p.Track)
	return b.String()
}
