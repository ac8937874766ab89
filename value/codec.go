package value

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var (
	ErrShortBuffer       = errors.New("value: buffer too short")
	ErrEncodeUnsupported = errors.New("value: encode not implemented")
)

// ShortBufferError reports how many bytes a fixed-width decode needed.
type ShortBufferError struct {
	Need int
	Have int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("%v: need %d bytes, have %d", ErrShortBuffer, e.Need, e.Have)
}

func (e *ShortBufferError) Is(target error) bool { return target == ErrShortBuffer }

// Codec converts a host value to and from its representation in linear
// memory. Decode receives the bytes starting at the value's offset, which may
// extend past the value itself.
type Codec[T any] interface {
	Decode(buf []byte) (T, error)
	Encode(v T) ([]byte, error)
}

var (
	Int32   Codec[int32]  = int32Codec{}
	Int64   Codec[int64]  = int64Codec{}
	CString Codec[string] = cstringCodec{}
)

type int32Codec struct{}

func (int32Codec) Decode(buf []byte) (int32, error) {
	if len(buf) < 4 {
		return 0, &ShortBufferError{Need: 4, Have: len(buf)}
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}

func (int32Codec) Encode(v int32) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(nil, uint32(v)), nil
}

type int64Codec struct{}

func (int64Codec) Decode(buf []byte) (int64, error) {
	if len(buf) < 8 {
		return 0, &ShortBufferError{Need: 8, Have: len(buf)}
	}
	return int64(binary.LittleEndian.Uint64(buf)), nil
}

func (int64Codec) Encode(v int64) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil
}

// cstringCodec reads a null-terminated string. Without a terminator the
// whole buffer is taken.
type cstringCodec struct{}

func (cstringCodec) Decode(buf []byte) (string, error) {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return DecodeText(buf), nil
}

func (cstringCodec) Encode(string) ([]byte, error) {
	return nil, ErrEncodeUnsupported
}

// DecodeText interprets b as UTF-8, replacing invalid bytes with U+FFFD.
// It never fails.
func DecodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	// The decoder substitutes U+FFFD for invalid bytes and never fails.
	out, _ := unicode.UTF8.NewDecoder().Bytes(b)
	return string(out)
}
