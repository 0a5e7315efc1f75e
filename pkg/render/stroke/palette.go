package stroke

import (
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is an ordered list of colours indexed by depth band, the number of
// generations between an edge and the highlight target.
type Palette struct {
	Name   string
	Colors []colorful.Color
}

// NewPalette samples n colours in HCL space, sweeping hue from hueFrom to
// hueTo at fixed chroma and luminance so neighbouring bands stay distinct
// but related.
func NewPalette(name string, hueFrom, hueTo, chroma, luminance float64, n int) Palette {
	if n < 1 {
		n = 1
	}
	p := Palette{Name: name, Colors: make([]colorful.Color, n)}
	for i := range n {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		h := hueFrom + (hueTo-hueFrom)*t
		p.Colors[i] = colorful.Hcl(h, chroma, luminance).Clamped()
	}
	return p
}

// At returns the hex colour of a band. Bands beyond the palette wrap.
func (p Palette) At(band int) string {
	if len(p.Colors) == 0 {
		return "#ffffff"
	}
	if band < 0 {
		band = -band
	}
	return p.Colors[band%len(p.Colors)].Hex()
}

// Palettes assigns palettes to highlight roles.
type Palettes struct {
	Primary   Palette // single-path highlights and the first dual chain
	Secondary Palette // the second dual chain
	Search    Palette // search results
}

// DefaultPalettes returns warm lineage colours, cool partner-chain colours
// and a gold search palette.
func DefaultPalettes() Palettes {
	return Palettes{
		Primary:   NewPalette("ember", 10, 70, 0.7, 0.6, 6),
		Secondary: NewPalette("tide", 190, 270, 0.6, 0.6, 6),
		Search:    NewPalette("gold", 80, 95, 0.8, 0.85, 3),
	}
}

// Additive sums colours in linear RGB and clamps the result, which is what
// an additive blend produces where strokes overlap at full opacity.
// Unparseable colours are ignored.
func Additive(colors ...string) string {
	var r, g, b float64
	for _, s := range colors {
		c, err := colorful.Hex(s)
		if err != nil {
			continue
		}
		lr, lg, lb := c.LinearRgb()
		r, g, b = r+lr, g+lg, b+lb
	}
	return colorful.LinearRgb(clamp01(r), clamp01(g), clamp01(b)).Hex()
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
