// Package rom handles the platform boundary of a byte image: copier header
// removal, cartridge size classes, banked address mapping and the internal
// cartridge header. Everything inside the engine uses linear (PC) offsets.
package rom

import (
	"fmt"
	"math/bits"

	"github.com/ssargent/aerobonkers/pkg/errors"
)

const (
	// CopierHeaderSize is the length of the header some dumps carry
	CopierHeaderSize = 0x200
	// MinSize and MaxSize bound the accepted cartridge sizes
	MinSize = 0x40000
	MaxSize = 0x600000
	// SizeUnit is the granularity of a valid cartridge size
	SizeUnit = 0x8000
	// HeaderSize is the length of the internal header rewritten on serialize
	HeaderSize = 0x20

	titleLength = 21
)

// Mapping is a cartridge address mapping
type Mapping int

const (
	LoROM Mapping = iota
	HiROM
)

func (m Mapping) String() string {
	if m == HiROM {
		return "HiROM"
	}
	return "LoROM"
}

// Normalize returns a copy of image without a copier header. It fails when
// the remaining size is not a valid cartridge size.
func Normalize(image []byte) ([]byte, error) {
	data := image
	if len(data)%0x400 == CopierHeaderSize {
		data = data[CopierHeaderSize:]
	}
	if len(data) < MinSize || len(data) > MaxSize || len(data)%SizeUnit != 0 {
		return nil, errors.New(errors.PhaseLoad, errors.KindConfiguration).
			Detail("image of %d bytes is not a valid cartridge size", len(image)).
			Build()
	}
	return append([]byte(nil), data...), nil
}

// ToPC maps a banked address to a linear image offset
func (m Mapping) ToPC(addr uint32) (int, error) {
	bank := addr >> 16 & 0xff
	offset := addr & 0xffff

	switch m {
	case HiROM:
		if bank&0x40 == 0 && offset < 0x8000 {
			return 0, fmt.Errorf("address $%06X is not cartridge ROM", addr)
		}
		if bank >= 0x7e && bank <= 0x7f {
			return 0, fmt.Errorf("address $%06X is work RAM", addr)
		}
		return int(addr & 0x3fffff), nil
	default:
		if offset < 0x8000 {
			return 0, fmt.Errorf("address $%06X is not cartridge ROM", addr)
		}
		if bank >= 0x7e && bank <= 0x7f {
			return 0, fmt.Errorf("address $%06X is work RAM", addr)
		}
		return int(bank&0x7f)*0x8000 + int(offset-0x8000), nil
	}
}

// ToSNES maps a linear image offset to its canonical banked address
func (m Mapping) ToSNES(pc int) (uint32, error) {
	if pc < 0 || pc >= 0x400000 {
		return 0, fmt.Errorf("offset 0x%X outside mappable ROM", pc)
	}
	switch m {
	case HiROM:
		return 0xc00000 | uint32(pc), nil
	default:
		bank := uint32(pc/0x8000) | 0x80
		return bank<<16 | uint32(pc%0x8000+0x8000), nil
	}
}

// HeaderOffset returns the linear offset of the internal cartridge header
func (m Mapping) HeaderOffset() int {
	if m == HiROM {
		return 0xffc0
	}
	return 0x7fc0
}

// WriteTitle stores title (space padded) and version in the internal header
func WriteTitle(image []byte, m Mapping, title string, version byte) error {
	if len(title) > titleLength {
		return fmt.Errorf("title %q longer than %d characters", title, titleLength)
	}
	base := m.HeaderOffset()
	if base+HeaderSize > len(image) {
		return fmt.Errorf("image too small for a %s header", m)
	}
	for i := 0; i < titleLength; i++ {
		c := byte(' ')
		if i < len(title) {
			c = title[i]
		}
		image[base+i] = c
	}
	image[base+0x1b] = version
	return nil
}

// FixChecksum recomputes the internal header checksum and its complement
func FixChecksum(image []byte, m Mapping) error {
	base := m.HeaderOffset()
	if base+HeaderSize > len(image) {
		return fmt.Errorf("image too small for a %s header", m)
	}
	image[base+0x1c], image[base+0x1d] = 0xff, 0xff
	image[base+0x1e], image[base+0x1f] = 0x00, 0x00

	sum, _ := mirroredSum(image)
	checksum := uint16(sum)
	complement := ^checksum
	image[base+0x1c] = byte(complement)
	image[base+0x1d] = byte(complement >> 8)
	image[base+0x1e] = byte(checksum)
	image[base+0x1f] = byte(checksum >> 8)
	return nil
}

// Checksum returns the checksum stored in the internal header
func Checksum(image []byte, m Mapping) (uint16, error) {
	base := m.HeaderOffset()
	if base+HeaderSize > len(image) {
		return 0, fmt.Errorf("image too small for a %s header", m)
	}
	return uint16(image[base+0x1e]) | uint16(image[base+0x1f])<<8, nil
}

// mirroredSum sums image bytes the way the console checksum expects:
// a size that is not a power of two has its tail mirrored up to one.
func mirroredSum(data []byte) (uint32, int) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	var s uint32
	if bits.OnesCount(uint(n)) == 1 {
		for _, b := range data {
			s += uint32(b)
		}
		return s, n
	}
	p := 1 << (bits.Len(uint(n)) - 1)
	for _, b := range data[:p] {
		s += uint32(b)
	}
	tail, tailLen := mirroredSum(data[p:])
	return s + tail*uint32(p/tailLen), 2 * p
}
