package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dgnsrekt/serenade/internal/audio"
	"github.com/dgnsrekt/serenade/internal/content"
	"github.com/dgnsrekt/serenade/internal/gallery"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:     "info [PAGE]",
	Short:   "List the page's track and images",
	Long:    paragraph(fmt.Sprintf("\n%s the assets the page needs and whether they can be played and drawn.", keyword("List"))),
	Example: paragraph("serenade info\nserenade info page.yml --assets ./public"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := resolvePage(args)
		if err != nil {
			return err
		}
		return writeInfo(cmd.OutOrStdout(), src.page, src.dir)
	},
}

type assetInfo struct {
	kind   string
	name   string
	size   string
	detail string
}

func inventory(page content.Page, dir string) []assetInfo {
	rows := []assetInfo{describeTrack(content.Resolve(dir, page.Track))}
	for i, img := range page.Images {
		rows = append(rows, describeImage(content.Resolve(dir, img), page.AltText(i)))
	}
	return rows
}

func describeTrack(path string) assetInfo {
	a := assetInfo{kind: "track", name: filepath.Base(path), size: "-"}
	st, err := os.Stat(path)
	if err != nil {
		a.detail = "missing"
		return a
	}
	a.size = humanize.Bytes(uint64(st.Size())) //nolint:gosec

	s, err := audio.Decode(path)
	if err != nil {
		a.detail = err.Error()
		return a
	}
	defer func() { _ = s.Close() }()
	a.detail = fmt.Sprintf("%s, %d Hz, %d ch", s.Duration().Round(time.Second), s.SampleRate, s.Channels)
	return a
}

func describeImage(path, alt string) assetInfo {
	a := assetInfo{kind: "image", name: filepath.Base(path), size: "-"}
	st, err := os.Stat(path)
	if err != nil {
		a.detail = "missing, shown as “" + alt + "”"
		return a
	}
	a.size = humanize.Bytes(uint64(st.Size())) //nolint:gosec

	cfg, format, err := gallery.Inspect(path)
	if err != nil {
		a.detail = err.Error()
		return a
	}
	a.detail = fmt.Sprintf("%s %dx%d", format, cfg.Width, cfg.Height)
	return a
}

func writeInfo(w io.Writer, page content.Page, dir string) error {
	rows := inventory(page, dir)

	var kindW, nameW, sizeW int
	for _, r := range rows {
		kindW = max(kindW, runewidth.StringWidth(r.kind))
		nameW = max(nameW, runewidth.StringWidth(r.name))
		sizeW = max(sizeW, runewidth.StringWidth(r.size))
	}

	if _, err := fmt.Fprintf(w, "%s\n\n", keyword(page.Heading)); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	for _, r := range rows {
		_, err := fmt.Fprintf(w, "  %s  %s  %s  %s\n",
			runewidth.FillRight(r.kind, kindW),
			runewidth.FillRight(r.name, nameW),
			runewidth.FillLeft(r.size, sizeW),
			r.detail,
		)
		if err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}
