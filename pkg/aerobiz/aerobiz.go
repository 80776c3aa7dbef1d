// Package aerobiz declares the record families of Aerobiz Supersonic and
// runs them through the engine.
package aerobiz

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/ssargent/aerobonkers/pkg/engine"
	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/rom"
)

const (
	// Title and Version are written to the output ROM header
	Title   = "AEROBONKERS"
	Version = 1

	// MaxSeed bounds generated seeds
	MaxSeed = 99999999

	// CrazyDegree is the plane data random degree under the crazy flag
	CrazyDegree = 0.9
)

// Options configures one randomization
type Options struct {
	ROM          []byte
	Flags        map[string]bool
	Seed         int64   // 0 picks a random seed
	RandomDegree float64 // plane data degree when > 0 and crazy is off
	Patches      []engine.Patch
	Hooks        engine.Hooks
	Logger       *zap.Logger
	Recorder     engine.Recorder
}

// Families returns the families of one run in declaration order
func Families(opts Options) ([]*engine.Family, error) {
	airlines, err := AirlineNames()
	if err != nil {
		return nil, err
	}
	planes, err := PlaneData(airlines)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Flags[FlagCrazy]:
		planes.RandomDegree = engine.Degree(CrazyDegree)
	case opts.RandomDegree > 0:
		planes.RandomDegree = engine.Degree(opts.RandomDegree)
	}
	return []*engine.Family{airlines, planes}, nil
}

// Execute randomizes an Aerobiz Supersonic ROM. The result holds the new
// image and the seed that produced it.
func Execute(opts Options) (*engine.Result, error) {
	if len(opts.ROM) == 0 {
		return nil, errors.Configuration("no ROM specified")
	}
	if opts.Flags == nil {
		return nil, errors.Configuration("no flags specified")
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63n(MaxSeed)
	}

	families, err := Families(opts)
	if err != nil {
		return nil, err
	}

	return engine.Execute(engine.Options{
		Image: opts.ROM,
		Specs: engine.Specs{
			Flags:   opts.Flags,
			Seed:    seed,
			SNES:    true,
			Mapping: rom.LoROM,
			Title:   Title,
			Version: Version,
		},
		Families: families,
		Patches:  opts.Patches,
		Hooks:    opts.Hooks,
		Logger:   opts.Logger,
		Recorder: opts.Recorder,
	})
}
