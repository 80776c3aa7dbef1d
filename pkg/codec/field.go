package codec

import (
	"encoding/binary"

	"github.com/ssargent/aerobonkers/pkg/errors"
)

// Decode reads the field described by l at offset and returns its value and
// the number of bytes it spans. Bitfields decode to the raw byte as an
// Integer; use UnpackFlags to split it.
func Decode(image []byte, offset int, l Layout) (Value, int, error) {
	if offset < 0 || offset > len(image) {
		return Value{}, 0, outOfRange(l, offset, 0, len(image))
	}

	switch l.Kind {
	case Integer:
		if err := checkWidth(l); err != nil {
			return Value{}, 0, err
		}
		if offset+l.Width > len(image) {
			return Value{}, 0, outOfRange(l, offset, l.Width, len(image))
		}
		return IntValue(readUint(image[offset:offset+l.Width], l.BigEndian)), l.Width, nil

	case Bitfield:
		if offset+1 > len(image) {
			return Value{}, 0, outOfRange(l, offset, 1, len(image))
		}
		return IntValue(int64(image[offset])), 1, nil

	case Text:
		return decodeText(image, offset, l)

	case List:
		if err := checkWidth(l); err != nil {
			return Value{}, 0, err
		}
		size := l.Size()
		if offset+size > len(image) {
			return Value{}, 0, outOfRange(l, offset, size, len(image))
		}
		xs := make([]int64, l.Count)
		for i := range xs {
			start := offset + i*l.Width
			xs[i] = readUint(image[start:start+l.Width], l.BigEndian)
		}
		return Value{kind: List, list: xs}, size, nil

	default:
		return Value{}, 0, errors.New(errors.PhaseLoad, errors.KindConfiguration).
			Attr(l.Name).
			Offset(offset).
			Detail("%s field needs a family codec", l.Kind).
			Build()
	}
}

// Encode serializes v for the field described by l. span is the number of
// bytes the field occupied when it was read; the result is always exactly
// span bytes long for text and exactly the layout size otherwise.
func Encode(v Value, l Layout, span int) ([]byte, error) {
	switch l.Kind {
	case Integer, Bitfield:
		width := l.Width
		if l.Kind == Bitfield {
			width = 1
		} else if err := checkWidth(l); err != nil {
			return nil, err
		}
		if v.kind != Integer {
			return nil, mismatch(l, v)
		}
		if !fits(v.num, width) {
			return nil, errors.TooLarge(l.Name, bytesNeeded(v.num), width)
		}
		buf := make([]byte, width)
		writeUint(buf, v.num, l.BigEndian)
		return buf, nil

	case Text:
		if v.kind != Text {
			return nil, mismatch(l, v)
		}
		capacity, size := textCapacity(l, span)
		if len(v.text) > capacity {
			return nil, errors.TooLarge(l.Name, len(v.text), capacity)
		}
		buf := make([]byte, size)
		copy(buf, v.text)
		return buf, nil

	case List:
		if err := checkWidth(l); err != nil {
			return nil, err
		}
		if v.kind != List {
			return nil, mismatch(l, v)
		}
		if len(v.list) > l.Count {
			return nil, errors.TooLarge(l.Name, len(v.list)*l.Width, l.Size())
		}
		buf := make([]byte, l.Size())
		for i, x := range v.list {
			if !fits(x, l.Width) {
				return nil, errors.TooLarge(l.Name, bytesNeeded(x), l.Width)
			}
			writeUint(buf[i*l.Width:(i+1)*l.Width], x, l.BigEndian)
		}
		return buf, nil

	default:
		return nil, errors.New(errors.PhaseWrite, errors.KindConfiguration).
			Attr(l.Name).
			Detail("%s field needs a family codec", l.Kind).
			Build()
	}
}

// UnpackFlags splits b into n booleans, bit 0 first
func UnpackFlags(b byte, n int) []bool {
	if n > MaxFlags {
		n = MaxFlags
	}
	flags := make([]bool, n)
	for i := range flags {
		flags[i] = b&(1<<uint(i)) != 0
	}
	return flags
}

// PackFlags sets the low len(flags) bits of keep from flags, bit 0 first.
// Bits without a flag keep their value from keep.
func PackFlags(flags []bool, keep byte) byte {
	b := keep
	for i, f := range flags {
		if i >= MaxFlags {
			break
		}
		mask := byte(1) << uint(i)
		if f {
			b |= mask
		} else {
			b &^= mask
		}
	}
	return b
}

func decodeText(image []byte, offset int, l Layout) (Value, int, error) {
	if l.Width > 0 {
		if offset+l.Width > len(image) {
			return Value{}, 0, outOfRange(l, offset, l.Width, len(image))
		}
		run := image[offset : offset+l.Width]
		n := 0
		for n < len(run) && run[n] != 0 {
			n++
		}
		return TextValue(string(run[:n])), l.Width, nil
	}

	n := 0
	for offset+n < len(image) && image[offset+n] != 0 {
		n++
	}
	if offset+n >= len(image) {
		return Value{}, 0, errors.New(errors.PhaseLoad, errors.KindConfiguration).
			Attr(l.Name).
			Offset(offset).
			Detail("text runs past the end of the image without a terminator").
			Build()
	}
	return TextValue(string(image[offset : offset+n])), n + 1, nil
}

// textCapacity returns how many characters fit and how many bytes to write.
// Self-terminating text keeps its terminator byte.
func textCapacity(l Layout, span int) (capacity, size int) {
	if l.Width > 0 {
		return l.Width, l.Width
	}
	if span < 1 {
		return 0, 0
	}
	return span - 1, span
}

func readUint(b []byte, bigEndian bool) int64 {
	var buf [8]byte
	if bigEndian {
		copy(buf[8-len(b):], b)
		return int64(binary.BigEndian.Uint64(buf[:]))
	}
	copy(buf[:], b)
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

func writeUint(dst []byte, v int64, bigEndian bool) {
	var buf [8]byte
	if bigEndian {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		copy(dst, buf[8-len(dst):])
		return
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	copy(dst, buf[:len(dst)])
}

func fits(v int64, width int) bool {
	if width >= 8 {
		return true
	}
	return v >= 0 && v <= IntegerLimit(width)
}

func bytesNeeded(v int64) int {
	if v < 0 {
		return 8
	}
	n := 1
	for v > 0xff {
		v >>= 8
		n++
	}
	return n
}

func checkWidth(l Layout) error {
	if l.Width < 1 || l.Width > 8 {
		return errors.New(errors.PhaseSchema, errors.KindMalformedLayout).
			Attr(l.Name).
			Detail("integer width %d outside 1-8", l.Width).
			Build()
	}
	return nil
}

func mismatch(l Layout, v Value) error {
	return errors.New(errors.PhaseWrite, errors.KindConfiguration).
		Attr(l.Name).
		Detail("%s value cannot be written to a %s field", v.kind, l.Kind).
		Build()
}

func outOfRange(l Layout, offset, size, limit int) error {
	return errors.New(errors.PhaseLoad, errors.KindConfiguration).
		Attr(l.Name).
		Offset(offset).
		Detail("%d-byte field outside %d-byte image", size, limit).
		Build()
}
