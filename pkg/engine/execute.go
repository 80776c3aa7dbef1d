package engine

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/rom"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

// Execute runs every family over a copy of opts.Image and returns the
// resulting image. On any fatal error no image is returned and opts.Image
// is left untouched.
func Execute(opts Options) (*Result, error) {
	start := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	c := &Context{
		Specs:     opts.Specs,
		Families:  opts.Families,
		Patches:   opts.Patches,
		Hooks:     opts.Hooks,
		RunID:     ksuid.New(),
		stage:     StageInit,
		recorder:  recorder,
		schemas:   make(map[*Family]*schema.Schema),
		instances: make(map[*Family][]*Instance),
	}
	c.Logger = logger.With(zap.String("run_id", c.RunID.String()))

	res, err := c.run(opts.Image)
	if err != nil {
		failedAt := c.stage
		c.stage = StageFailed
		c.Logger.Error("run failed", zap.String("stage", string(failedAt)), zap.Error(err))
		c.Hooks.error(err.Error())
		recorder.ObserveRun(StageFailed, time.Since(start))
		return nil, err
	}

	c.Logger.Info("run complete",
		zap.Int64("seed", c.Specs.Seed),
		zap.Int("changes", len(res.Changes)),
		zap.Duration("elapsed", time.Since(start)))
	recorder.ObserveRun(StageDone, time.Since(start))
	return res, nil
}

func (c *Context) run(image []byte) (*Result, error) {
	order, err := c.init(image)
	if err != nil {
		return nil, err
	}

	c.stage = StagePatchPre
	if err := applyPatches(c.Image, c.Patches); err != nil {
		return nil, err
	}
	expected := patchedRegions(c.Image, c.Patches)

	c.stage = StageRandomize
	for _, f := range order {
		if err := c.runFamily(f); err != nil {
			return nil, err
		}
	}

	c.stage = StagePatchVerify
	if err := verifyPatches(c.Image, expected); err != nil {
		return nil, err
	}

	c.stage = StageSerialize
	if err := c.serialize(); err != nil {
		return nil, err
	}

	res := &Result{
		Image: c.Image,
		RunID: c.RunID,
		Seed:  c.Specs.Seed,
	}
	for _, f := range order {
		res.Order = append(res.Order, f.Name)
		for _, inst := range c.instances[f] {
			for _, attr := range inst.Changed() {
				res.Changes = append(res.Changes, Change{
					Family: f.Name,
					Index:  inst.Index,
					Attr:   attr,
					Old:    inst.Old(attr),
					New:    inst.Get(attr),
				})
			}
		}
	}

	c.stage = StageDone
	return res, nil
}

// init validates the options and every declaration before any byte is read
func (c *Context) init(image []byte) ([]*Family, error) {
	if len(image) == 0 {
		return nil, errors.Configuration("no image specified")
	}
	if c.Specs.Flags == nil {
		return nil, errors.Configuration("no flags specified")
	}
	if len(c.Families) == 0 {
		return nil, errors.Configuration("no record families declared")
	}

	for _, f := range c.Families {
		if f == nil {
			return nil, errors.Configuration("nil family declared")
		}
		s, err := f.check()
		if err != nil {
			return nil, err
		}
		c.schemas[f] = s
	}
	order, err := resolveOrder(c.Families, c.schemas)
	if err != nil {
		return nil, err
	}
	if c.Specs.SNES && c.Specs.Title != "" {
		if err := checkHeaderPatches(c.Patches, c.Specs.Mapping); err != nil {
			return nil, err
		}
	}

	data := bytes.Clone(image)
	if c.Specs.SNES {
		if data, err = rom.Normalize(image); err != nil {
			return nil, err
		}
	}
	c.Image = data
	c.Rand = rand.New(rand.NewSource(c.Specs.Seed))

	c.Logger.Debug("run initialized",
		zap.Int("image_bytes", len(data)),
		zap.Int64("seed", c.Specs.Seed),
		zap.Int("families", len(order)))
	return order, nil
}

// runFamily reads, randomizes, validates and writes one family. Writes
// finish before the next family is read.
func (c *Context) runFamily(f *Family) error {
	start := time.Now()

	insts, err := c.loadFamily(f)
	if err != nil {
		return err
	}
	c.instances[f] = insts

	randomized := f.shouldRandomize(c)
	if randomized {
		c.Hooks.message(fmt.Sprintf("Randomizing %s.", f.Name))
		if len(f.Intershuffle) > 0 {
			if err := c.phase(f, insts, "intershuffle", func() error {
				intershuffle(c, f, insts)
				return nil
			}); err != nil {
				return err
			}
		}
		if len(f.Randomize) > 0 {
			if err := c.phase(f, insts, "randomize", func() error {
				randomize(c, f, insts)
				return nil
			}); err != nil {
				return err
			}
		}
		if len(f.Mutate) > 0 {
			if err := c.phase(f, insts, "mutate", func() error {
				return mutate(c, f, insts)
			}); err != nil {
				return err
			}
		}
	}

	for _, inst := range insts {
		if err := inst.Validate(); err != nil {
			if errors.IsFatal(err) {
				return err
			}
			c.report(err)
		}
	}
	for _, inst := range insts {
		if err := inst.Write(c.Image); err != nil {
			return err
		}
	}

	c.recorder.ObserveFamily(f.Name, randomized, time.Since(start))
	c.Logger.Debug("family written",
		zap.String("family", f.Name),
		zap.Int("instances", len(insts)),
		zap.Bool("randomized", randomized))
	return nil
}

func (c *Context) loadFamily(f *Family) ([]*Instance, error) {
	s := c.schemas[f]
	insts := make([]*Instance, 0, s.Count)
	pointer := s.Pointer
	for i := 0; i < s.Count; i++ {
		inst, err := load(c.Image, f, s, i, pointer)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
		if s.Variable() {
			pointer += inst.Span
		} else {
			pointer += s.Stride
		}
	}
	return insts, nil
}

// phase runs fn and records how many attribute values it changed
func (c *Context) phase(f *Family, insts []*Instance, name string, fn func() error) error {
	before := snapshotData(insts)
	if err := fn(); err != nil {
		return err
	}
	n := countChanged(before, insts)
	c.recorder.CountChanges(f.Name, name, n)
	c.Logger.Debug("phase complete",
		zap.String("family", f.Name),
		zap.String("phase", name),
		zap.Int("changed", n))
	return nil
}

func (c *Context) serialize() error {
	if !c.Specs.SNES || c.Specs.Title == "" {
		return nil
	}
	if err := rom.WriteTitle(c.Image, c.Specs.Mapping, c.Specs.Title, c.Specs.Version); err != nil {
		return errors.Wrap(errors.PhaseSerialize, errors.KindConfiguration, err, "writing header title")
	}
	if err := rom.FixChecksum(c.Image, c.Specs.Mapping); err != nil {
		return errors.Wrap(errors.PhaseSerialize, errors.KindConfiguration, err, "fixing checksum")
	}
	return nil
}

// report surfaces a recoverable error without stopping the run
func (c *Context) report(err error) {
	c.Logger.Warn("recoverable error", zap.Error(err))
	c.Hooks.error(err.Error())
}
