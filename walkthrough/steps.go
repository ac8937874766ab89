package walkthrough

import (
	"fmt"
	"io"

	"github.com/caffeineduck/wasmbridge/state"
	"github.com/caffeineduck/wasmbridge/value"
)

const (
	Greeting    = "hello from webassembly"
	StateHandle = state.Handle(1)
)

const countText = "hello world"

// DefaultSteps returns the five demonstration calls against the demo guest.
func DefaultSteps() []Step {
	return []Step{
		{
			Title:  "Add numbers",
			Export: "add",
			Args:   []value.Value{value.I32(3), value.I32(6)},
			Verify: expectResult(value.I32(9)),
		},
		{
			Title:  "Count string length",
			Export: "count_str",
			Args:   []value.Value{value.I32(0), value.I32(int32(len(countText)))},
			Before: func(t Target) error {
				return t.Caller.Memory().Set(0, []byte(countText))
			},
			Verify: expectResult(value.I32(11)),
		},
		{
			Title:  "Return str from WebAssembly",
			Export: "return_str",
			Verify: verifyGreeting,
		},
		{
			Title:  "Calculate number by calling host function",
			Export: "calc_host",
			Args:   []value.Value{value.I32(3)},
			Verify: expectResult(value.I32(18)),
		},
		{
			Title:  "Call a method on complex object",
			Export: "host_state_add",
			Args:   []value.Value{value.I32(int32(StateHandle))},
			Before: func(t Target) error {
				t.States.Insert(StateHandle, 0)
				return nil
			},
			Verify: verifyState,
		},
	}
}

func expectResult(want value.Value) func(io.Writer, Target, value.Value) error {
	return func(_ io.Writer, _ Target, got value.Value) error {
		if got != want {
			return Mismatch(want, got)
		}
		return nil
	}
}

func verifyGreeting(w io.Writer, t Target, res value.Value) error {
	if res.Kind() != value.KindI32 {
		return Mismatch("i32 pointer", res.Kind())
	}
	s, err := t.Caller.Memory().ReadCString(uint32(res.I32()))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "[return_str] string %q\n", s)
	if s != Greeting {
		return Mismatch(fmt.Sprintf("%q", Greeting), fmt.Sprintf("%q", s))
	}
	return nil
}

func verifyState(w io.Writer, t Target, res value.Value) error {
	c, ok := t.States.Get(StateHandle)
	if !ok {
		return Mismatch("state 5", "no state")
	}
	fmt.Fprintf(w, "[host_state_add] state %d\n", c)
	if !res.IsNone() {
		return Mismatch(value.None, res)
	}
	if c != 5 {
		return Mismatch(5, c)
	}
	return nil
}
