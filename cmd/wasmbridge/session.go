package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/caffeineduck/wasmbridge/executor"
	"github.com/caffeineduck/wasmbridge/hostfunc"
	"github.com/caffeineduck/wasmbridge/state"
	"github.com/caffeineduck/wasmbridge/walkthrough"
)

type config struct {
	ModulePath string `validate:"required"`
	Memory     string `validate:"omitempty,oneof=1mb 16mb 64mb 256mb 1gb"`
	CacheDir   string `validate:"excluded_with=NoCache"`
	NoCache    bool
	Verbose    bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func loadConfig(flags *pflag.FlagSet, modulePath string) (config, error) {
	verbose, _ := flags.GetBool("verbose")
	mem, _ := flags.GetString("memory")
	noCache, _ := flags.GetBool("no-cache")
	cacheDir, _ := flags.GetString("cache-dir")

	cfg := config{
		ModulePath: modulePath,
		Memory:     strings.ToLower(mem),
		CacheDir:   cacheDir,
		NoCache:    noCache,
		Verbose:    verbose,
	}
	if err := validate.Struct(cfg); err != nil {
		return config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// session is one loaded module with the host state its imports use.
type session struct {
	exec   *executor.Executor
	inst   *executor.Instance
	states *state.Registry[state.Counter]
	logger *zap.Logger
}

func openSession(ctx context.Context, cfg config) (*session, error) {
	wasm, err := afero.ReadFile(appFs, cfg.ModulePath)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	states := state.NewRegistry[state.Counter](state.WithLogger(logger))
	host := hostfunc.NewEnv(states).Registry(hostfunc.WithLogger(logger))

	opts := []executor.Option{executor.WithLogger(logger)}
	if !cfg.NoCache {
		opts = append(opts, executor.WithDiskCache(cfg.CacheDir))
	}
	if pages := parseMemoryLimit(cfg.Memory); pages > 0 {
		opts = append(opts, executor.WithMemoryLimit(pages))
	}

	exec, err := executor.New(host, opts...)
	if err != nil {
		return nil, err
	}

	inst, err := exec.Load(ctx, wasm)
	if err != nil {
		exec.Close()
		return nil, fmt.Errorf("load %s: %w", cfg.ModulePath, err)
	}

	return &session{exec: exec, inst: inst, states: states, logger: logger}, nil
}

func (s *session) target() walkthrough.Target {
	return walkthrough.Target{Caller: s.inst, States: s.states}
}

func (s *session) Close(ctx context.Context) {
	s.inst.Close(ctx)
	s.exec.Close()
	s.logger.Sync()
}
