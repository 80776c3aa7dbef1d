package engine

import (
	"bytes"

	"github.com/ssargent/aerobonkers/pkg/errors"
	"github.com/ssargent/aerobonkers/pkg/rom"
)

// checkHeaderPatches rejects patches the serialize step would overwrite
func checkHeaderPatches(patches []Patch, m rom.Mapping) error {
	start := m.HeaderOffset()
	end := start + rom.HeaderSize
	for _, p := range patches {
		if p.Offset < end && p.Offset+len(p.Data) > start {
			return errors.New(errors.PhaseInit, errors.KindConfiguration).
				Offset(p.Offset).
				Detail("patch overlaps the %s header at 0x%x-0x%x", m, start, end-1).
				Build()
		}
	}
	return nil
}

func applyPatches(image []byte, patches []Patch) error {
	for _, p := range patches {
		if p.Offset < 0 || p.Offset+len(p.Data) > len(image) {
			return errors.New(errors.PhasePatch, errors.KindConfiguration).
				Offset(p.Offset).
				Detail("%d-byte patch outside %d-byte image", len(p.Data), len(image)).
				Build()
		}
		copy(image[p.Offset:], p.Data)
	}
	return nil
}

// patchedRegions captures the patched bytes as they stand after every patch
// was applied, so overlapping patches verify against the last writer
func patchedRegions(image []byte, patches []Patch) []Patch {
	out := make([]Patch, len(patches))
	for i, p := range patches {
		out[i] = Patch{Offset: p.Offset, Data: bytes.Clone(image[p.Offset : p.Offset+len(p.Data)])}
	}
	return out
}

func verifyPatches(image []byte, expected []Patch) error {
	for _, p := range expected {
		got := image[p.Offset : p.Offset+len(p.Data)]
		if !bytes.Equal(got, p.Data) {
			return errors.PatchMismatch(p.Offset, p.Data, got)
		}
	}
	return nil
}
