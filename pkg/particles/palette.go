package particles

import colorful "github.com/lucasb-eyer/go-colorful"

// Palette colors shared by every population.
var (
	EmeraldDeep  = colorful.MustParseHex("#002816")
	EmeraldLight = colorful.MustParseHex("#005C32")
	GoldHigh     = colorful.MustParseHex("#F9E58A")
	GoldDeep     = colorful.MustParseHex("#C5A059")
	RedLuxury    = colorful.MustParseHex("#8A1C1C")
	WhiteWarm    = colorful.MustParseHex("#FFF5E1")
)

// Color is an sRGB triple with components in [0,1].
type Color = colorful.Color

// foliageColor picks a needle color: mostly emerald shades, a few gold tips.
func foliageColor(shade, tip float64) Color {
	if tip < 0.04 {
		return GoldDeep.BlendLab(GoldHigh, shade)
	}
	return EmeraldDeep.BlendLab(EmeraldLight, shade)
}
