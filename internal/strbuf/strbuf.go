// Package strbuf provides the growable UTF-8 byte buffer the scanner uses
// to accumulate the text of quoted atoms between escape decodes.
package strbuf

import "bytes"

// Builder accumulates bytes of a single lexeme under construction. The
// zero value is ready to use.
//
// Builder wraps bytes.Buffer rather than hand-rolling a doubling-capacity
// array: bytes.Buffer already amortizes growth correctly, and is what the
// teacher's own token payload types do (cbarrick-ripl's Functor type is a
// bytes.Buffer alias).
type Builder struct {
	buf bytes.Buffer
}

// Append writes s to the builder.
func (b *Builder) Append(s string) {
	b.buf.WriteString(s)
}

// AppendByte writes a single byte to the builder.
func (b *Builder) AppendByte(c byte) {
	b.buf.WriteByte(c)
}

// AppendRune encodes r as UTF-8 and writes it to the builder.
func (b *Builder) AppendRune(r rune) {
	b.buf.WriteRune(r)
}

// Clear empties the builder without releasing its backing array, so it can
// be reused for the next quoted atom.
func (b *Builder) Clear() {
	b.buf.Reset()
}

// Len returns the number of accumulated bytes.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Bytes returns the accumulated bytes. The slice is valid until the next
// mutating call to the builder.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// String returns the accumulated bytes as a string.
func (b *Builder) String() string {
	return b.buf.String()
}

// GetByte returns the byte at index i.
func (b *Builder) GetByte(i int) byte {
	return b.buf.Bytes()[i]
}
