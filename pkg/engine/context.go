package engine

import (
	"math/rand"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/rom"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

// DefaultRandomDegree is used by families that do not set their own
const DefaultRandomDegree = 0.25

// Stage is a step of a run
type Stage string

const (
	StageInit        Stage = "init"
	StagePatchPre    Stage = "patch"
	StageRandomize   Stage = "randomize"
	StagePatchVerify Stage = "verify"
	StageSerialize   Stage = "serialize"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Specs holds the run configuration visible to families
type Specs struct {
	Flags   map[string]bool
	Seed    int64
	SNES    bool // normalize the image and allow header writes
	Mapping rom.Mapping
	Title   string // written to the internal header when set
	Version byte
}

// Flag reports whether the named flag is set
func (s Specs) Flag(name string) bool {
	return s.Flags[name]
}

// Hooks report progress and failures to the caller
type Hooks struct {
	Message func(string)
	Error   func(string)
}

func (h Hooks) message(s string) {
	if h.Message != nil {
		h.Message(s)
	}
}

func (h Hooks) error(s string) {
	if h.Error != nil {
		h.Error(s)
	}
}

// Patch is a literal byte run written before randomization and verified after
type Patch struct {
	Offset int
	Data   []byte
}

// Options configures a single Execute call
type Options struct {
	Image    []byte
	Specs    Specs
	Families []*Family
	Patches  []Patch
	Hooks    Hooks
	Logger   *zap.Logger
	Recorder Recorder
}

// Change records one attribute that differs from its snapshot after a run
type Change struct {
	Family string      `json:"family"`
	Index  int         `json:"index"`
	Attr   string      `json:"attr"`
	Old    codec.Value `json:"-"`
	New    codec.Value `json:"-"`
}

// Result is the output of a successful run
type Result struct {
	Image   []byte
	RunID   ksuid.KSUID
	Seed    int64
	Order   []string // family names in execution order
	Changes []Change
}

// Context is the state of one run. It is never reused.
type Context struct {
	Image    []byte
	Specs    Specs
	Rand     *rand.Rand
	Families []*Family
	Patches  []Patch
	Hooks    Hooks
	Logger   *zap.Logger
	RunID    ksuid.KSUID

	stage     Stage
	recorder  Recorder
	schemas   map[*Family]*schema.Schema
	instances map[*Family][]*Instance
}

// Stage returns the step the run is in
func (c *Context) Stage() Stage {
	return c.stage
}

// Instances returns the loaded instances of f in index order, or nil if f
// has not been loaded yet
func (c *Context) Instances(f *Family) []*Instance {
	return c.instances[f]
}

// Schema returns the parsed schema of f
func (c *Context) Schema(f *Family) *schema.Schema {
	return c.schemas[f]
}
