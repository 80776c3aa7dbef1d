package aerobiz

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ssargent/aerobonkers/pkg/codec"
	"github.com/ssargent/aerobonkers/pkg/engine"
	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/schema"
)

//go:embed tables/*.yaml
var tables embed.FS

// Family display names
const (
	AirlineNamesName = "airline names"
	PlaneDataName    = "plane data"
)

// Flags understood by the families
const (
	FlagNames = "names"
	FlagData  = "data"
	FlagCrazy = "crazy"
)

func loadTable(name string) (schema.Table, error) {
	data, err := tables.ReadFile("tables/" + name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("failed to read table %s: %w", name, err)
	}
	return schema.LoadTable(bytes.NewReader(data))
}

// AirlineNames declares the airline name strings. Each name is rebuilt from
// two name parts whose lengths add up to the original length.
func AirlineNames() (*engine.Family, error) {
	table, err := loadTable("airline_names.yaml")
	if err != nil {
		return nil, err
	}
	return &engine.Family{
		Name:  AirlineNamesName,
		Table: table,
		ShouldRandomize: func(c *engine.Context) bool {
			return c.Specs.Flag(FlagNames)
		},
		Mutate: []engine.Rule{
			{Attr: "name", Policy: engine.Func(renameAirline)},
		},
	}, nil
}

func renameAirline(inst *engine.Instance, c *engine.Context) (codec.Value, error) {
	size := inst.Old("name").Len()
	if size < 2 {
		return inst.Get("name"), nil
	}
	first := c.Rand.Intn(size-1) + 2
	n1 := pickPart(c.Rand, first)
	n2 := pickPart(c.Rand, size-first)
	return codec.TextValue(n1 + n2), nil
}

// PlaneData declares the aircraft table. Rows are ranked by price.
func PlaneData(after ...*engine.Family) (*engine.Family, error) {
	table, err := loadTable("plane_data.yaml")
	if err != nil {
		return nil, err
	}
	return &engine.Family{
		Name:  PlaneDataName,
		Table: table,
		Rank: func(inst *engine.Instance) float64 {
			return float64(inst.OldInt("price"))
		},
		ShouldRandomize: func(c *engine.Context) bool {
			return c.Specs.Flag(FlagData)
		},
		AfterOrder: after,
		Intershuffle: [][]string{
			{"speed"},
			{"fuel", "maintenance"},
		},
		Randomize: []string{"unknown1", "unknown2"},
		Mutate: []engine.Rule{
			{Attr: "miles_range", Policy: engine.Inferred()},
			{Attr: "seats", Policy: engine.Inferred()},
			{Attr: "price", Policy: engine.Inferred()},
			{Attr: "fuel", Policy: engine.Between(1, 63)},
			{Attr: "maintenance", Policy: engine.Between(1, 63)},
			{Attr: "speed", Policy: engine.Func(boostSpeed)},
		},
		Validator: engine.ValidatorFunc(checkSeller),
	}, nil
}

// boostSpeed halves the speed value of about a quarter of the planes.
// Smaller values are faster.
func boostSpeed(inst *engine.Instance, c *engine.Context) (codec.Value, error) {
	if c.Rand.Float64() < 0.25 {
		return codec.IntValue(inst.Int("speed") / 2), nil
	}
	return inst.Get("speed"), nil
}

func checkSeller(inst *engine.Instance) error {
	if inst.Int("seller") != inst.OldInt("seller") {
		return errors.Assertion(PlaneDataName, "seller",
			fmt.Sprintf("row %d seller changed from %d to %d", inst.Index, inst.OldInt("seller"), inst.Int("seller")))
	}
	return nil
}
