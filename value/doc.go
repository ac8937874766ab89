// Package value defines the typed values that cross the host/guest boundary
// and the codecs that move them in and out of linear memory.
//
// A [Value] is a tagged union over the WebAssembly number types. Its zero
// value is [None], which stands for "no result" on functions that return
// nothing.
//
// Codecs convert between host values and their little-endian layout:
//
//	n, err := value.Int32.Decode(buf)
//	s, err := value.CString.Decode(buf) // stops at the first zero byte
//
// Strings are decode-only. [CString] returns [ErrEncodeUnsupported] from
// Encode, since no calling convention for host-to-guest strings is defined.
package value
