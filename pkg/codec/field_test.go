package codec

import (
	"bytes"
	"testing"

	"github.com/ssargent/aerobonkers/pkg/errors"
)

func TestDecodeEncode_RoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		image  []byte
		layout Layout
		want   Value
		span   int
	}{
		{
			name:   "one byte integer",
			image:  []byte{0x2a},
			layout: Layout{Name: "seats", Kind: Integer, Width: 1},
			want:   IntValue(42),
			span:   1,
		},
		{
			name:   "two byte little endian",
			image:  []byte{0x34, 0x12},
			layout: Layout{Name: "price", Kind: Integer, Width: 2},
			want:   IntValue(0x1234),
			span:   2,
		},
		{
			name:   "three byte big endian",
			image:  []byte{0x01, 0x02, 0x03},
			layout: Layout{Name: "pointer", Kind: Integer, Width: 3, BigEndian: true},
			want:   IntValue(0x010203),
			span:   3,
		},
		{
			name:   "bitfield raw byte",
			image:  []byte{0xa5},
			layout: Layout{Name: "bits", Kind: Bitfield, Flags: []string{"a", "b"}},
			want:   IntValue(0xa5),
			span:   1,
		},
		{
			name:   "fixed text with padding",
			image:  []byte{'A', 'B', 0, 0, 0},
			layout: Layout{Name: "attack", Kind: Text, Width: 5},
			want:   TextValue("AB"),
			span:   5,
		},
		{
			name:   "fixed text filling width",
			image:  []byte{'A', 'B', 'C'},
			layout: Layout{Name: "attack", Kind: Text, Width: 3},
			want:   TextValue("ABC"),
			span:   3,
		},
		{
			name:   "self-terminating text",
			image:  []byte("GP-ANDO\x00"),
			layout: Layout{Name: "name", Kind: Text},
			want:   TextValue("GP-ANDO"),
			span:   8,
		},
		{
			name:   "list of words",
			image:  []byte{0x01, 0x00, 0x02, 0x00, 0xff, 0xff},
			layout: Layout{Name: "colors", Kind: List, Width: 2, Count: 3},
			want:   ListValue(1, 2, 0xffff),
			span:   6,
		},
		{
			name:   "foreign key",
			image:  []byte{0x07},
			layout: Layout{Name: "item", Kind: Integer, Width: 1, Ref: "items"},
			want:   IntValue(7),
			span:   1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, span, err := Decode(tc.image, 0, tc.layout)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("value mismatch: got %v, want %v", got, tc.want)
			}
			if span != tc.span {
				t.Errorf("span mismatch: got %d, want %d", span, tc.span)
			}

			encoded, err := Encode(got, tc.layout, span)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if !bytes.Equal(encoded, tc.image) {
				t.Errorf("bytes mismatch: got % x, want % x", encoded, tc.image)
			}
		})
	}
}

func TestDecode_AtOffset(t *testing.T) {
	image := []byte{0xff, 0xff, 0x10, 0x20}
	v, span, err := Decode(image, 2, Layout{Name: "x", Kind: Integer, Width: 2})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Int() != 0x2010 || span != 2 {
		t.Errorf("got %v span %d", v, span)
	}
}

func TestDecode_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		image  []byte
		offset int
		layout Layout
	}{
		{"integer past end", []byte{0x01}, 0, Layout{Name: "x", Kind: Integer, Width: 2}},
		{"negative offset", []byte{0x01}, -1, Layout{Name: "x", Kind: Integer, Width: 1}},
		{"offset past end", []byte{0x01}, 2, Layout{Name: "x", Kind: Integer, Width: 1}},
		{"unterminated text", []byte("ABC"), 0, Layout{Name: "x", Kind: Text}},
		{"fixed text past end", []byte("AB"), 0, Layout{Name: "x", Kind: Text, Width: 4}},
		{"list past end", []byte{1, 2, 3}, 0, Layout{Name: "x", Kind: List, Width: 2, Count: 2}},
		{"custom", []byte{1}, 0, Layout{Name: "x", Kind: Custom}},
		{"zero width integer", []byte{1}, 0, Layout{Name: "x", Kind: Integer}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(tc.image, tc.offset, tc.layout); err == nil {
				t.Error("expected Decode to fail")
			}
		})
	}
}

func TestEncode_TooLarge(t *testing.T) {
	testCases := []struct {
		name   string
		value  Value
		layout Layout
		span   int
	}{
		{"byte overflow", IntValue(256), Layout{Name: "x", Kind: Integer, Width: 1}, 1},
		{"negative", IntValue(-1), Layout{Name: "x", Kind: Integer, Width: 2}, 2},
		{"bitfield overflow", IntValue(0x100), Layout{Name: "x", Kind: Bitfield}, 1},
		{"text longer than capture", TextValue("GP-ANDO12"), Layout{Name: "name", Kind: Text}, 8},
		{"text longer than width", TextValue("ABCDEF"), Layout{Name: "x", Kind: Text, Width: 5}, 5},
		{"list too long", ListValue(1, 2, 3), Layout{Name: "x", Kind: List, Width: 1, Count: 2}, 2},
		{"list element overflow", ListValue(1, 300), Layout{Name: "x", Kind: List, Width: 1, Count: 2}, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Encode(tc.value, tc.layout, tc.span)
			if !errors.Is(err, errors.KindEncodingTooLarge) {
				t.Errorf("expected encoding_too_large, got %v", err)
			}
		})
	}
}

func TestEncode_TextScenario(t *testing.T) {
	image := []byte("GP-ANDO\x00")
	layout := Layout{Name: "name", Kind: Text}

	v, span, err := Decode(image, 0, layout)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Text() != "GP-ANDO" || span != 8 {
		t.Fatalf("got %v span %d", v, span)
	}

	t.Run("nine characters fail", func(t *testing.T) {
		_, err := Encode(TextValue("AIRWAYS99"), layout, span)
		if !errors.Is(err, errors.KindEncodingTooLarge) {
			t.Errorf("expected encoding_too_large, got %v", err)
		}
	})

	t.Run("five characters are zero-padded", func(t *testing.T) {
		got, err := Encode(TextValue("SKYAI"), layout, span)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		want := []byte{'S', 'K', 'Y', 'A', 'I', 0, 0, 0}
		if !bytes.Equal(got, want) {
			t.Errorf("got % x, want % x", got, want)
		}
	})

	t.Run("same length keeps terminator", func(t *testing.T) {
		got, err := Encode(TextValue("AB-CDEF"), layout, span)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if len(got) != 8 || got[7] != 0 {
			t.Errorf("got % x", got)
		}
	})
}

func TestEncode_KindMismatch(t *testing.T) {
	_, err := Encode(TextValue("x"), Layout{Name: "x", Kind: Integer, Width: 1}, 1)
	if !errors.Is(err, errors.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	_, err = Encode(IntValue(1), Layout{Name: "x", Kind: Text, Width: 2}, 2)
	if !errors.Is(err, errors.KindConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestEncode_ShortListPadded(t *testing.T) {
	got, err := Encode(ListValue(7), Layout{Name: "x", Kind: List, Width: 2, Count: 2}, 4)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(got, []byte{7, 0, 0, 0}) {
		t.Errorf("got % x", got)
	}
}

func TestFlags(t *testing.T) {
	flags := UnpackFlags(0b1000_0101, 3)
	want := []bool{true, false, true}
	for i := range want {
		if flags[i] != want[i] {
			t.Errorf("flag %d: got %t, want %t", i, flags[i], want[i])
		}
	}

	// high bit has no flag and must survive packing
	if got := PackFlags([]bool{false, true, true}, 0b1000_0101); got != 0b1000_0110 {
		t.Errorf("PackFlags = %08b", got)
	}

	if got := len(UnpackFlags(0xff, 12)); got != MaxFlags {
		t.Errorf("UnpackFlags length = %d", got)
	}
}

func TestIntegerLimit(t *testing.T) {
	if IntegerLimit(1) != 0xff || IntegerLimit(2) != 0xffff || IntegerLimit(3) != 0xffffff {
		t.Error("unexpected limits")
	}
	if IntegerLimit(8) <= 0 {
		t.Error("8-byte limit must be positive")
	}
}

func TestValue(t *testing.T) {
	xs := []int64{1, 2}
	v := ListValue(xs...)
	xs[0] = 99
	if v.List()[0] != 1 {
		t.Error("ListValue must copy its input")
	}
	out := v.List()
	out[1] = 99
	if v.List()[1] != 2 {
		t.Error("List must return a copy")
	}

	if !FlagValue(true).Bool() || FlagValue(false).Bool() {
		t.Error("flag round trip failed")
	}
	if FlagValue(true).Equal(IntValue(1)) {
		t.Error("flag and integer must not compare equal")
	}
	if TextValue("abc").Len() != 3 || v.Len() != 2 || IntValue(4).Len() != 0 {
		t.Error("unexpected Len")
	}
	if (Value{}).Kind() != Integer || !(Value{}).Numeric() {
		t.Error("zero value must be integer 0")
	}
	if IntValue(5).String() != "5" || TextValue("a").String() != `"a"` || FlagValue(true).String() != "true" {
		t.Error("unexpected String output")
	}
}
