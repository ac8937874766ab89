// Package walkthrough drives a loaded guest module through a scripted series
// of export calls, verifying each result and printing a trace.
//
// The trace for the demo guest looks like:
//
//	Example 1: Add numbers
//	[add] args: [3, 6] result: 9
//
//	Example 3: Return str from WebAssembly
//	[return_str] args: [] result: 1024
//	[return_str] string "hello from webassembly"
//
// Run stops at the first call error or VerificationError.
package walkthrough
