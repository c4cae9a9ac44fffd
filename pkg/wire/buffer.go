// Package wire provides the low-level byte encoding primitives shared by
// the beacon and relay wire protocols: a bounds-checked view over a byte
// slice, and socket address serialization.
package wire

import "encoding/binary"

// Buffer is a non-owning view over a byte slice with adjustable logical
// bounds [start, end) within a fixed backing capacity. All reads and
// writes are relative to start. Buffer does not outlive its backing
// slice; callers are responsible for keeping the slice alive.
type Buffer struct {
	buf   []byte
	start int
	end   int
}

// NewBuffer wraps buf in a Buffer spanning the whole slice.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{buf: buf, start: 0, end: len(buf)}
}

// Data returns the current window's backing bytes.
func (b *Buffer) Data() []byte {
	return b.buf[b.start:b.end]
}

// Size returns the length of the current window.
func (b *Buffer) Size() int {
	return b.end - b.start
}

// Capacity returns the size of the full backing slice.
func (b *Buffer) Capacity() int {
	return len(b.buf)
}

// ---- bounds mutators ----

// Cover advances start by n, consuming n bytes off the front of the
// window. Fails if that would move start past end.
func (b *Buffer) Cover(n int) bool {
	if n < 0 || b.start+n > b.end {
		return false
	}
	b.start += n
	return true
}

// CoverUnsafe is Cover without bounds checking.
func (b *Buffer) CoverUnsafe(n int) {
	b.start += n
}

// Uncover retreats start by n, exposing n previously-covered bytes.
// Fails if that would move start below 0.
func (b *Buffer) Uncover(n int) bool {
	if n < 0 || b.start-n < 0 {
		return false
	}
	b.start -= n
	return true
}

// UncoverUnsafe is Uncover without bounds checking.
func (b *Buffer) UncoverUnsafe(n int) {
	b.start -= n
}

// Truncate retracts end by n. Fails if that would move end below start.
func (b *Buffer) Truncate(n int) bool {
	if n < 0 || b.end-n < b.start {
		return false
	}
	b.end -= n
	return true
}

// TruncateUnsafe is Truncate without bounds checking.
func (b *Buffer) TruncateUnsafe(n int) {
	b.end -= n
}

// Expand extends end by n. Fails if that would move end past capacity.
func (b *Buffer) Expand(n int) bool {
	if n < 0 || b.end+n > len(b.buf) {
		return false
	}
	b.end += n
	return true
}

// ExpandUnsafe is Expand without bounds checking.
func (b *Buffer) ExpandUnsafe(n int) {
	b.end += n
}

// ---- arbitrary reads/writes ----

// Read copies size bytes starting at pos (relative to start) into out.
// Fails if pos+size exceeds the window.
func (b *Buffer) Read(pos int, out []byte, size int) bool {
	if pos < 0 || size < 0 || pos+size > b.Size() {
		return false
	}
	copy(out[:size], b.buf[b.start+pos:b.start+pos+size])
	return true
}

// ReadUnsafe is Read without bounds checking.
func (b *Buffer) ReadUnsafe(pos int, out []byte, size int) {
	copy(out[:size], b.buf[b.start+pos:b.start+pos+size])
}

// Write copies size bytes from in into the window starting at pos.
// Fails if pos+size exceeds the window.
func (b *Buffer) Write(pos int, in []byte, size int) bool {
	if pos < 0 || size < 0 || pos+size > b.Size() {
		return false
	}
	copy(b.buf[b.start+pos:b.start+pos+size], in[:size])
	return true
}

// WriteUnsafe is Write without bounds checking.
func (b *Buffer) WriteUnsafe(pos int, in []byte, size int) {
	copy(b.buf[b.start+pos:b.start+pos+size], in[:size])
}

// ---- uint8 ----

func (b *Buffer) ReadUint8(pos int) (uint8, bool) {
	if pos < 0 || pos+1 > b.Size() {
		return 0, false
	}
	return b.ReadUint8Unsafe(pos), true
}

func (b *Buffer) ReadUint8Unsafe(pos int) uint8 {
	return b.buf[b.start+pos]
}

func (b *Buffer) WriteUint8(pos int, v uint8) bool {
	if pos < 0 || pos+1 > b.Size() {
		return false
	}
	b.WriteUint8Unsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint8Unsafe(pos int, v uint8) {
	b.buf[b.start+pos] = v
}

// ---- uint16 ----

func (b *Buffer) ReadUint16LE(pos int) (uint16, bool) {
	if pos < 0 || pos+2 > b.Size() {
		return 0, false
	}
	return b.ReadUint16LEUnsafe(pos), true
}

func (b *Buffer) ReadUint16LEUnsafe(pos int) uint16 {
	return binary.LittleEndian.Uint16(b.buf[b.start+pos:])
}

func (b *Buffer) ReadUint16BE(pos int) (uint16, bool) {
	if pos < 0 || pos+2 > b.Size() {
		return 0, false
	}
	return b.ReadUint16BEUnsafe(pos), true
}

func (b *Buffer) ReadUint16BEUnsafe(pos int) uint16 {
	return binary.BigEndian.Uint16(b.buf[b.start+pos:])
}

// ReadUint16 reads in native (here: little-endian host) byte order.
// Intended only for same-host usage, per the buffer's contract.
func (b *Buffer) ReadUint16(pos int) (uint16, bool) {
	return b.ReadUint16LE(pos)
}

func (b *Buffer) ReadUint16Unsafe(pos int) uint16 {
	return b.ReadUint16LEUnsafe(pos)
}

func (b *Buffer) WriteUint16LE(pos int, v uint16) bool {
	if pos < 0 || pos+2 > b.Size() {
		return false
	}
	b.WriteUint16LEUnsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint16LEUnsafe(pos int, v uint16) {
	binary.LittleEndian.PutUint16(b.buf[b.start+pos:], v)
}

func (b *Buffer) WriteUint16BE(pos int, v uint16) bool {
	if pos < 0 || pos+2 > b.Size() {
		return false
	}
	b.WriteUint16BEUnsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint16BEUnsafe(pos int, v uint16) {
	binary.BigEndian.PutUint16(b.buf[b.start+pos:], v)
}

func (b *Buffer) WriteUint16(pos int, v uint16) bool {
	return b.WriteUint16LE(pos, v)
}

func (b *Buffer) WriteUint16Unsafe(pos int, v uint16) {
	b.WriteUint16LEUnsafe(pos, v)
}

// ---- uint32 ----

func (b *Buffer) ReadUint32LE(pos int) (uint32, bool) {
	if pos < 0 || pos+4 > b.Size() {
		return 0, false
	}
	return b.ReadUint32LEUnsafe(pos), true
}

func (b *Buffer) ReadUint32LEUnsafe(pos int) uint32 {
	return binary.LittleEndian.Uint32(b.buf[b.start+pos:])
}

func (b *Buffer) ReadUint32BE(pos int) (uint32, bool) {
	if pos < 0 || pos+4 > b.Size() {
		return 0, false
	}
	return b.ReadUint32BEUnsafe(pos), true
}

func (b *Buffer) ReadUint32BEUnsafe(pos int) uint32 {
	return binary.BigEndian.Uint32(b.buf[b.start+pos:])
}

func (b *Buffer) ReadUint32(pos int) (uint32, bool) {
	return b.ReadUint32LE(pos)
}

func (b *Buffer) ReadUint32Unsafe(pos int) uint32 {
	return b.ReadUint32LEUnsafe(pos)
}

func (b *Buffer) WriteUint32LE(pos int, v uint32) bool {
	if pos < 0 || pos+4 > b.Size() {
		return false
	}
	b.WriteUint32LEUnsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint32LEUnsafe(pos int, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[b.start+pos:], v)
}

func (b *Buffer) WriteUint32BE(pos int, v uint32) bool {
	if pos < 0 || pos+4 > b.Size() {
		return false
	}
	b.WriteUint32BEUnsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint32BEUnsafe(pos int, v uint32) {
	binary.BigEndian.PutUint32(b.buf[b.start+pos:], v)
}

func (b *Buffer) WriteUint32(pos int, v uint32) bool {
	return b.WriteUint32LE(pos, v)
}

func (b *Buffer) WriteUint32Unsafe(pos int, v uint32) {
	b.WriteUint32LEUnsafe(pos, v)
}

// ---- uint64 ----

func (b *Buffer) ReadUint64LE(pos int) (uint64, bool) {
	if pos < 0 || pos+8 > b.Size() {
		return 0, false
	}
	return b.ReadUint64LEUnsafe(pos), true
}

func (b *Buffer) ReadUint64LEUnsafe(pos int) uint64 {
	return binary.LittleEndian.Uint64(b.buf[b.start+pos:])
}

func (b *Buffer) ReadUint64BE(pos int) (uint64, bool) {
	if pos < 0 || pos+8 > b.Size() {
		return 0, false
	}
	return b.ReadUint64BEUnsafe(pos), true
}

func (b *Buffer) ReadUint64BEUnsafe(pos int) uint64 {
	return binary.BigEndian.Uint64(b.buf[b.start+pos:])
}

func (b *Buffer) ReadUint64(pos int) (uint64, bool) {
	return b.ReadUint64LE(pos)
}

func (b *Buffer) ReadUint64Unsafe(pos int) uint64 {
	return b.ReadUint64LEUnsafe(pos)
}

func (b *Buffer) WriteUint64LE(pos int, v uint64) bool {
	if pos < 0 || pos+8 > b.Size() {
		return false
	}
	b.WriteUint64LEUnsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint64LEUnsafe(pos int, v uint64) {
	binary.LittleEndian.PutUint64(b.buf[b.start+pos:], v)
}

func (b *Buffer) WriteUint64BE(pos int, v uint64) bool {
	if pos < 0 || pos+8 > b.Size() {
		return false
	}
	b.WriteUint64BEUnsafe(pos, v)
	return true
}

func (b *Buffer) WriteUint64BEUnsafe(pos int, v uint64) {
	binary.BigEndian.PutUint64(b.buf[b.start+pos:], v)
}

func (b *Buffer) WriteUint64(pos int, v uint64) bool {
	return b.WriteUint64LE(pos, v)
}

func (b *Buffer) WriteUint64Unsafe(pos int, v uint64) {
	b.WriteUint64LEUnsafe(pos, v)
}
