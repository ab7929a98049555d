package particles

import (
	"fmt"
	"math/rand/v2"
)

// OrnamentKind tags an ornament record. Each kind carries fixed attributes
// in its KindSpec.
type OrnamentKind int

const (
	Gift OrnamentKind = iota
	Ball
	Light
)

// KindSpec holds the immutable per-kind attributes.
type KindSpec struct {
	Name     string
	ScaleMin float64
	ScaleMax float64
	Palette  []Color

	// Inset scales the cone radius at the ornament's height. Values above
	// one push the element outside the foliage surface.
	Inset float64
}

var kindSpecs = [...]KindSpec{
	Gift: {
		Name:     "gift",
		ScaleMin: 0.35,
		ScaleMax: 0.55,
		Palette:  []Color{RedLuxury, GoldDeep, EmeraldLight},
		Inset:    0.88,
	},
	Ball: {
		Name:     "ball",
		ScaleMin: 0.20,
		ScaleMax: 0.35,
		Palette:  []Color{GoldHigh, GoldDeep, RedLuxury},
		Inset:    0.95,
	},
	Light: {
		Name:     "light",
		ScaleMin: 0.06,
		ScaleMax: 0.10,
		Palette:  []Color{WhiteWarm, GoldHigh},
		Inset:    1.03,
	},
}

// Spec returns the attributes of k.
func (k OrnamentKind) Spec() KindSpec {
	if k < Gift || k > Light {
		return kindSpecs[Ball]
	}
	return kindSpecs[k]
}

// String returns the kind name.
func (k OrnamentKind) String() string {
	if k < Gift || k > Light {
		return fmt.Sprintf("OrnamentKind(%d)", int(k))
	}
	return kindSpecs[k].Name
}

// MarshalText implements encoding.TextMarshaler.
func (k OrnamentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseOrnamentKind parses "gift", "ball" or "light".
func ParseOrnamentKind(s string) (OrnamentKind, error) {
	for k, spec := range kindSpecs {
		if spec.Name == s {
			return OrnamentKind(k), nil
		}
	}
	return 0, fmt.Errorf("particles: unknown ornament kind %q", s)
}

// KindMix is a weighted choice of ornament kinds.
type KindMix []struct {
	Kind   OrnamentKind
	Weight float64
}

// DefaultOrnamentMix is roughly one gift box for every two baubles.
var DefaultOrnamentMix = KindMix{
	{Kind: Gift, Weight: 0.3},
	{Kind: Ball, Weight: 0.7},
}

// LightMix produces only lights.
var LightMix = KindMix{{Kind: Light, Weight: 1}}

func (m KindMix) pick(rng *rand.Rand) OrnamentKind {
	total := 0.0
	for _, e := range m {
		total += e.Weight
	}
	if len(m) == 0 || total <= 0 {
		return Ball
	}
	r := rng.Float64() * total
	for _, e := range m {
		if r < e.Weight {
			return e.Kind
		}
		r -= e.Weight
	}
	return m[len(m)-1].Kind
}
