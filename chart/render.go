// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package chart

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/danielhkuo/ghpolls/models"
)

// Presentation constants.
const (
	DefaultWidth  = 800
	RowHeight     = 30
	EmptyHeight   = 200
	FontSize      = 16
	MessageSize   = 30
	marginLeft    = 20
	marginRight   = 20
	columnGap     = 12
	barFill       = 0.9
	maxNameShare  = 0.4
	valueReserved = 170
)

const (
	background = "#ffffff"
	barColor   = "#3b7dd8"
	textColor  = "#333333"
	guideColor = "#e6e6e6"
)

var monoFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

// Renderer draws horizontal bar charts of poll tallies. A Renderer is safe
// for concurrent use; each call builds its own drawing context.
type Renderer struct {
	Width  int
	Format LabelFormatter
	Place  ValuePlacement
}

// NewRenderer returns a renderer with vote labels printed after each bar.
func NewRenderer() *Renderer {
	return &Renderer{
		Width:  DefaultWidth,
		Format: VoteLabel,
		Place:  AfterBar,
	}
}

// Height returns the image height for n choices.
func Height(n int) int {
	if n > models.MaxChartChoices {
		n = models.MaxChartChoices
	}
	if n == 0 {
		return EmptyHeight
	}
	return RowHeight * n
}

// Labels returns the value label of each bar, in drawing order from top
// to bottom.
func (r *Renderer) Labels(sorted []string, tally models.Tally) []string {
	sorted = truncate(sorted)
	labels := make([]string, len(sorted))
	for i, choice := range sorted {
		labels[i] = r.Format(tally.Count(choice), tally.Total)
	}
	return labels
}

// Render draws the chart for choices already ordered most votes first.
// Only the first MaxChartChoices are drawn, the highest at the top.
func (r *Renderer) Render(sorted []string, tally models.Tally) ([]byte, error) {
	sorted = truncate(sorted)

	face, err := newFace(FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	width := r.Width
	height := Height(len(sorted))
	dc := gg.NewContext(width, height)
	dc.SetHexColor(background)
	dc.Clear()
	dc.SetFontFace(face)

	nameWidth := 0.0
	for _, choice := range sorted {
		if w, _ := dc.MeasureString(choice); w > nameWidth {
			nameWidth = w
		}
	}
	if limit := float64(width) * maxNameShare; nameWidth > limit {
		nameWidth = limit
	}

	barX := marginLeft + nameWidth + columnGap
	barSpan := float64(width) - barX - marginRight - valueReserved
	if barSpan < 1 {
		barSpan = 1
	}

	peak := 0
	for _, choice := range sorted {
		if c := tally.Count(choice); c > peak {
			peak = c
		}
	}

	dc.SetHexColor(guideColor)
	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		x := barX + barSpan*float64(i)/4
		dc.DrawLine(x, 0, x, float64(height))
		dc.Stroke()
	}

	for i, choice := range sorted {
		count := tally.Count(choice)
		rowTop := float64(i * RowHeight)
		barHeight := RowHeight * barFill
		bar := Bar{
			X:      barX,
			Y:      rowTop + (RowHeight-barHeight)/2,
			Height: barHeight,
		}
		if peak > 0 {
			bar.Width = barSpan * float64(count) / float64(peak)
		}

		if bar.Width > 0 {
			dc.SetHexColor(barColor)
			dc.DrawRectangle(bar.X, bar.Y, bar.Width, bar.Height)
			dc.Fill()
		}

		dc.SetHexColor(textColor)
		name := fit(dc, choice, nameWidth)
		dc.DrawStringAnchored(name, barX-columnGap, rowTop+RowHeight/2, 1, 0.35)

		label := r.Format(count, tally.Total)
		labelWidth, _ := dc.MeasureString(label)
		x, y, ax, ay := r.Place(bar, labelWidth)
		dc.DrawStringAnchored(label, x, y, ax, ay)
	}

	return encode(dc)
}

// Placeholder draws an empty chart with message centered on it.
func (r *Renderer) Placeholder(message string) ([]byte, error) {
	face, err := newFace(MessageSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	width, height := r.Width, EmptyHeight*2
	dc := gg.NewContext(width, height)
	dc.SetHexColor(background)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetHexColor(textColor)
	dc.DrawStringWrapped(message, float64(width)/2, float64(height)/2, 0.5, 0.5,
		float64(width-marginLeft-marginRight), 1.4, gg.AlignCenter)

	return encode(dc)
}

func truncate(sorted []string) []string {
	if len(sorted) > models.MaxChartChoices {
		return sorted[:models.MaxChartChoices]
	}
	return sorted
}

// fit shortens s with an ellipsis until it is at most width wide.
func fit(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return ""
}

func newFace(size float64) (font.Face, error) {
	f, err := monoFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull}), nil
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
