// Command mkguest writes the demo guest module to a file so the CLI can be
// run without an external toolchain:
//
//	go run ./internal/tools/mkguest demo.wasm
//	wasmbridge demo.wasm
package main

import (
	"fmt"
	"os"

	"github.com/caffeineduck/wasmbridge/internal/guest"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: mkguest <output>")
		os.Exit(1)
	}

	output := os.Args[1]
	if err := os.WriteFile(output, guest.Demo(), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
