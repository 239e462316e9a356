package mask

import (
	"strings"

	"github.com/gogpu/gg"
	"github.com/samber/lo"
)

// Theme is the cosmetic coating art drawn over a card. It never affects the
// occlusion alpha.
type Theme struct {
	Name   string
	Base   gg.RGBA
	Accent gg.RGBA
	// Spacing is the distance between accent dots in device pixels.
	Spacing float64
}

var (
	DefaultTheme = Theme{Name: "silver", Base: gg.Hex("#b8b8b8"), Accent: gg.Hex("#d6d6d6"), Spacing: 14}

	themes = []Theme{
		DefaultTheme,
		{Name: "gold", Base: gg.Hex("#c9a227"), Accent: gg.Hex("#e8c65a"), Spacing: 12},
		{Name: "bronze", Base: gg.Hex("#8c5a2b"), Accent: gg.Hex("#b07a46"), Spacing: 16},
		{Name: "midnight", Base: gg.Hex("#1f2433"), Accent: gg.Hex("#3a4366"), Spacing: 10},
	}

	themesByName = lo.Associate(themes, func(t Theme) (string, Theme) {
		return t.Name, t
	})
)

// ThemeByName looks up a coating theme, falling back to DefaultTheme for
// empty or unknown names.
func ThemeByName(name string) Theme {
	if t, ok := themesByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return DefaultTheme
}

// ThemeNames lists the registered themes in declaration order.
func ThemeNames() []string {
	return lo.Map(themes, func(t Theme, _ int) string { return t.Name })
}

func (t Theme) paint(dc *gg.Context) {
	dc.ClearWithColor(opaqueColor(t.Base))

	spacing := t.Spacing
	if spacing <= 0 {
		spacing = DefaultTheme.Spacing
	}
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetRGBA(t.Accent.R, t.Accent.G, t.Accent.B, 1)
	row := 0
	for y := spacing / 2; y < h; y += spacing {
		offset := 0.0
		if row%2 == 1 {
			offset = spacing / 2
		}
		for x := spacing/2 + offset; x < w; x += spacing {
			dc.DrawCircle(x, y, spacing/5)
		}
		row++
	}
	_ = dc.Fill()
}

func opaqueColor(c gg.RGBA) gg.RGBA {
	c.A = 1
	return c
}
