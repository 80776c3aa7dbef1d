// Package codec encodes and decodes single fields of fixed-layout records
// stored in a flat byte image.
//
// A field is described by a Layout. The codec understands five kinds:
//
//	Integer   unsigned, 1-8 bytes, little-endian unless BigEndian is set
//	Bitfield  one byte holding up to eight named flags, bit 0 first
//	Text      character codes, zero-terminated or filling a fixed width
//	List      Count integers of Width bytes each
//	Custom    declared with width "?"; decoded by the owning family
//
// An Integer with Ref set is a foreign-key index into another record family.
// It is decoded exactly like an Integer; the tag only matters to mutation.
//
// # Spans
//
// Decode reports the span a field occupies in the image. Encode is given that
// span back and never writes past it. For fixed-width kinds the span equals
// the layout size. For zero-width Text the span is the captured length plus
// the terminator, so a replacement string may be shorter than the original
// (the rest is zero-padded) but never longer:
//
//	v, span, _ := codec.Decode(image, 0x764d3, codec.Layout{Name: "name", Kind: codec.Text})
//	// v.Text() == "GP-ANDO", span == 8
//	b, err := codec.Encode(codec.TextValue("SKY"), layout, span)
//	// b == "SKY\x00\x00\x00\x00\x00"
//
// # Error Handling
//
// Values that cannot fit their field fail with an error of kind
// encoding_too_large from package errors. Nothing is ever truncated.
//
// # Thread Safety
//
// All functions are pure. Value is immutable; List returns a copy.
package codec
