package walkthrough

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/caffeineduck/wasmbridge/memory"
	"github.com/caffeineduck/wasmbridge/state"
	"github.com/caffeineduck/wasmbridge/value"
)

// Caller is the part of a loaded module a walkthrough needs.
// *executor.Instance satisfies it.
type Caller interface {
	Call(ctx context.Context, name string, args ...value.Value) (value.Value, error)
	Memory() *memory.Accessor
}

// Target is what steps run against: a module and the host state its imports
// mutate.
type Target struct {
	Caller Caller
	States *state.Registry[state.Counter]
}

// Step calls one export. Before prepares memory or state, Verify checks the
// result and may print detail lines to w. Both are optional.
type Step struct {
	Title  string
	Export string
	Args   []value.Value
	Before func(t Target) error
	Verify func(w io.Writer, t Target, result value.Value) error
}

// VerificationError reports a step whose result differs from what it expects.
type VerificationError struct {
	Step   int
	Export string
	Want   string
	Got    string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("example %d (%s): expected %s, got %s", e.Step, e.Export, e.Want, e.Got)
}

// Mismatch builds the VerificationError a Verify func returns. Run fills in
// the step number and export name.
func Mismatch(want, got any) error {
	return &VerificationError{Want: fmt.Sprint(want), Got: fmt.Sprint(got)}
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// Runner executes steps in order and writes a trace of every call.
type Runner struct {
	out    io.Writer
	logger *zap.Logger
}

func New(out io.Writer, opts ...Option) *Runner {
	r := &Runner{out: out, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run stops at the first failing step.
func (r *Runner) Run(ctx context.Context, t Target, steps []Step) error {
	for i, step := range steps {
		n := i + 1
		if err := r.run(ctx, t, n, step); err != nil {
			var verr *VerificationError
			if errors.As(err, &verr) {
				verr.Step = n
				verr.Export = step.Export
				return verr
			}
			return fmt.Errorf("example %d (%s): %w", n, step.Export, err)
		}
		r.logger.Debug("step passed", zap.Int("step", n), zap.String("export", step.Export))
	}
	return nil
}

func (r *Runner) run(ctx context.Context, t Target, n int, step Step) error {
	fmt.Fprintf(r.out, "\nExample %d: %s\n", n, step.Title)

	if step.Before != nil {
		if err := step.Before(t); err != nil {
			return err
		}
	}

	res, err := t.Caller.Call(ctx, step.Export, step.Args...)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "[%s] args: %s result: %s\n", step.Export, FormatArgs(step.Args), res)

	if step.Verify == nil {
		return nil
	}
	return step.Verify(r.out, t, res)
}

// FormatArgs renders args as "[3, 6]".
func FormatArgs(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
