// Package memory provides bounds-checked access to a module's linear memory.
//
// The host never grows memory: an access that does not fit inside the
// current size fails with ErrOutOfBounds.
package memory

import (
	"errors"
	"fmt"

	"github.com/caffeineduck/wasmbridge/value"
)

var ErrOutOfBounds = errors.New("memory: out of bounds")

// Memory is the subset of wazero's api.Memory the accessor needs.
type Memory interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// OutOfBoundsError reports the range that did not fit.
type OutOfBoundsError struct {
	Offset uint32
	Length uint64
	Size   uint32
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("memory: out of bounds: offset=%d, length=%d, size=%d", e.Offset, e.Length, e.Size)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// Accessor reads and writes a linear memory.
type Accessor struct {
	mem Memory
}

// New wraps mem. It returns nil for a nil memory.
func New(mem Memory) *Accessor {
	if mem == nil {
		return nil
	}
	return &Accessor{mem: mem}
}

// Size returns the current memory size in bytes.
func (a *Accessor) Size() uint32 { return a.mem.Size() }

func (a *Accessor) check(offset uint32, length uint64) error {
	size := a.mem.Size()
	if uint64(offset)+length > uint64(size) {
		return &OutOfBoundsError{Offset: offset, Length: length, Size: size}
	}
	return nil
}

// Set writes data starting at offset.
func (a *Accessor) Set(offset uint32, data []byte) error {
	if err := a.check(offset, uint64(len(data))); err != nil {
		return err
	}
	if !a.mem.Write(offset, data) {
		return &OutOfBoundsError{Offset: offset, Length: uint64(len(data)), Size: a.mem.Size()}
	}
	return nil
}

// View returns the bytes in [offset, offset+length) without copying. The
// slice aliases guest memory and is only valid until the next guest call.
func (a *Accessor) View(offset, length uint32) ([]byte, error) {
	if err := a.check(offset, uint64(length)); err != nil {
		return nil, err
	}
	b, ok := a.mem.Read(offset, length)
	if !ok {
		return nil, &OutOfBoundsError{Offset: offset, Length: uint64(length), Size: a.mem.Size()}
	}
	return b, nil
}

// GetRange returns a copy of the bytes in [offset, offset+length).
func (a *Accessor) GetRange(offset, length uint32) ([]byte, error) {
	b, err := a.View(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadString decodes the string in [offset, offset+length), stopping early at
// a zero byte. Invalid UTF-8 is replaced, never rejected.
func (a *Accessor) ReadString(offset, length uint32) (string, error) {
	b, err := a.View(offset, length)
	if err != nil {
		return "", err
	}
	return value.CString.Decode(b)
}

// ReadCString decodes the null-terminated string starting at offset.
func (a *Accessor) ReadCString(offset uint32) (string, error) {
	return Get(a, offset, value.CString)
}

// Get decodes a T at offset. The codec sees every byte from offset to the end
// of memory. Every value occupies at least one byte, so offset must lie
// inside memory.
func Get[T any](a *Accessor, offset uint32, c value.Codec[T]) (T, error) {
	var zero T
	size := a.mem.Size()
	if offset >= size {
		return zero, &OutOfBoundsError{Offset: offset, Length: 1, Size: size}
	}
	b, err := a.View(offset, size-offset)
	if err != nil {
		return zero, err
	}
	v, err := c.Decode(b)
	var short *value.ShortBufferError
	if errors.As(err, &short) {
		return zero, fmt.Errorf("%w: %w", &OutOfBoundsError{Offset: offset, Length: uint64(short.Need), Size: size}, err)
	}
	return v, err
}

// Put encodes v with c and writes it at offset.
func Put[T any](a *Accessor, offset uint32, c value.Codec[T], v T) error {
	b, err := c.Encode(v)
	if err != nil {
		return err
	}
	return a.Set(offset, b)
}
