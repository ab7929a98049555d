// Package particles generates the static dual-position datasets for every
// population of the tree: foliage, ornaments, lights and dust.
package particles

import (
	"math/rand/v2"
	"time"
)

// Dataset is the read-only output of generation. Nothing mutates it after
// Generate returns.
type Dataset struct {
	Seed      uint64
	Shape     Shape
	Foliage   *FoliageBatch
	Ornaments []Ornament
	Lights    []Ornament
	Dust      *FoliageBatch
}

// NewRand returns the generator used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate builds every population described by cfg. The same non-zero
// seed always yields the same dataset.
func Generate(cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := NewRand(seed)

	foliage, err := GenerateFoliage(cfg.FoliageCount, cfg.Shape, rng)
	if err != nil {
		return nil, err
	}
	ornaments, err := GenerateOrnaments(cfg.OrnamentCount, cfg.Shape, DefaultOrnamentMix, rng)
	if err != nil {
		return nil, err
	}
	lights, err := GenerateOrnaments(cfg.LightCount, cfg.Shape, LightMix, rng)
	if err != nil {
		return nil, err
	}
	dust, err := GenerateDust(cfg.DustCount, cfg.Shape, rng)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Seed:      seed,
		Shape:     cfg.Shape,
		Foliage:   foliage,
		Ornaments: ornaments,
		Lights:    lights,
		Dust:      dust,
	}, nil
}

// Count returns the total number of elements across populations.
func (d *Dataset) Count() int {
	return d.Foliage.Len() + len(d.Ornaments) + len(d.Lights) + d.Dust.Len()
}
