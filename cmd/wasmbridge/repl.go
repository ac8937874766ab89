package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/caffeineduck/wasmbridge/state"
	"github.com/caffeineduck/wasmbridge/value"
	"github.com/caffeineduck/wasmbridge/walkthrough"
)

const replHelp = `Commands:
  exports                  list exported functions
  call <export> [i32...]   call an export with i32 arguments
  mem <offset> <len>       hex dump linear memory
  str <offset>             read a null-terminated string
  write <offset> <text>    write text into linear memory
  state <handle> [value]   show or set a state counter
  help                     show this help
  exit                     end the session
`

var errQuit = errors.New("quit")

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl <module>",
		Short: "Interactive session against a loaded module",
		Long: `Load a module and call its exports interactively.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
		Args: cobra.ExactArgs(1),
		RunE: runRepl,
	}
	cmd.Flags().String("history", "", "History file path (default: ~/.wasmbridge_history)")
	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags(), args[0])
	if err != nil {
		return err
	}
	historyFile, _ := cmd.Flags().GetString("history")
	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".wasmbridge_history")
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "wasm> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(cmd.ErrOrStderr(), "wasmbridge REPL for %s (type 'help' for commands, Ctrl+D to exit)\n", cfg.ModulePath)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		err = evalReplLine(ctx, sess.target(), line, out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
}

// evalReplLine runs one REPL command. It returns errQuit on exit.
func evalReplLine(ctx context.Context, t walkthrough.Target, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "exit", "quit":
		return errQuit

	case "help":
		fmt.Fprint(out, replHelp)

	case "exports":
		lister, ok := t.Caller.(interface{ Exports() []string })
		if !ok {
			return errors.New("module does not list exports")
		}
		for _, name := range lister.Exports() {
			fmt.Fprintln(out, name)
		}

	case "call":
		if len(fields) < 2 {
			return errors.New("usage: call <export> [i32...]")
		}
		args := make([]value.Value, 0, len(fields)-2)
		for _, f := range fields[2:] {
			n, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return fmt.Errorf("argument %q: %w", f, err)
			}
			args = append(args, value.I32(int32(n)))
		}
		res, err := t.Caller.Call(ctx, fields[1], args...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s] args: %s result: %s\n", fields[1], walkthrough.FormatArgs(args), res)

	case "mem":
		if len(fields) != 3 {
			return errors.New("usage: mem <offset> <len>")
		}
		offset, err := parseUint32(fields[1])
		if err != nil {
			return err
		}
		length, err := parseUint32(fields[2])
		if err != nil {
			return err
		}
		data, err := t.Caller.Memory().GetRange(offset, length)
		if err != nil {
			return err
		}
		fmt.Fprint(out, hex.Dump(data))

	case "str":
		if len(fields) != 2 {
			return errors.New("usage: str <offset>")
		}
		offset, err := parseUint32(fields[1])
		if err != nil {
			return err
		}
		s, err := t.Caller.Memory().ReadCString(offset)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%q\n", s)

	case "write":
		if len(fields) < 3 {
			return errors.New("usage: write <offset> <text>")
		}
		offset, err := parseUint32(fields[1])
		if err != nil {
			return err
		}
		text := strings.Join(fields[2:], " ")
		if err := t.Caller.Memory().Set(offset, []byte(text)); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d bytes at %d\n", len(text), offset)

	case "state":
		if len(fields) < 2 || len(fields) > 3 {
			return errors.New("usage: state <handle> [value]")
		}
		h, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("handle %q: %w", fields[1], err)
		}
		handle := state.Handle(h)
		if len(fields) == 3 {
			v, err := strconv.ParseInt(fields[2], 10, 32)
			if err != nil {
				return fmt.Errorf("value %q: %w", fields[2], err)
			}
			t.States.Insert(handle, state.Counter(v))
		}
		c, ok := t.States.Get(handle)
		if !ok {
			fmt.Fprintf(out, "state %d: none\n", handle)
			return nil
		}
		fmt.Fprintf(out, "state %d: %d\n", handle, c)

	default:
		return fmt.Errorf("unknown command %q (type 'help')", fields[0])
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("offset %q: %w", s, err)
	}
	return uint32(n), nil
}
