package rtm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/log"
)

// Program is a call ready for execution: the generic template, the bindings
// for this invocation, and the substituted text.
type Program struct {
	Name     string
	Template string
	Bindings Bindings
	Text     string
}

// Session ties the compiler to a registry snapshot, a template cache and an
// execution engine. It is meant for a single test goroutine.
type Session struct {
	registry    Registry
	engine      Engine
	cache       *TemplateCache
	caller      string
	logger      log.Logger
	compileOpts []CompileOption
}

// NewSession creates a session. Without WithTemplateCache, templates are
// cached in memory for the lifetime of the session.
func NewSession(reg Registry, engine Engine, opts ...SessionOption) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = NewMemoryTemplateCache(WithCacheLogger(cfg.logger))
	}
	return &Session{
		registry:    reg,
		engine:      engine,
		cache:       cfg.cache,
		caller:      cfg.caller,
		logger:      cfg.logger,
		compileOpts: cfg.compileOpts,
	}
}

// Registry returns the session's registry.
func (s *Session) Registry() Registry {
	return s.registry
}

// Cache returns the session's template cache.
func (s *Session) Cache() *TemplateCache {
	return s.cache
}

// Caller returns the registry name of the default calling account.
func (s *Session) Caller() string {
	return s.caller
}

// SetCaller changes the default calling account. Calls already built keep
// the caller they were built with.
func (s *Session) SetCaller(account string) {
	s.caller = account
}

// Template returns the generic manifest text for target, compiling it on the
// first request for its name.
func (s *Session) Template(target Target) (string, error) {
	return s.cache.GetOrCreate(target.Name(), func() string {
		return Compile(target, s.compileOpts...).String()
	})
}

// Prepare builds the final program for target under cctx. An empty caller
// in cctx falls back to the session caller.
func (s *Session) Prepare(target Target, cctx CallContext) (*Program, error) {
	if cctx.Caller == "" {
		cctx.Caller = s.caller
	}

	text, err := s.Template(target)
	if err != nil {
		return nil, err
	}
	bindings, err := Resolve(target, s.registry, cctx)
	if err != nil {
		return nil, err
	}
	program, err := Substitute(text, bindings)
	if err != nil {
		return nil, err
	}

	s.logger.Trace("Prepared manifest", "name", target.Name(), "bindings", len(bindings))
	return &Program{
		Name:     target.Name(),
		Template: text,
		Bindings: bindings,
		Text:     program,
	}, nil
}

// Call starts building a call of target by the session caller.
func (s *Session) Call(target Target) *Call {
	return &Call{
		session: s,
		target:  target,
		cctx:    CallContext{Caller: s.caller},
	}
}

// Manifest starts building a run of the hand-written template stored under
// name, signed by the session caller.
func (s *Session) Manifest(name string) *ManifestCall {
	return &ManifestCall{
		session: s,
		name:    name,
		caller:  s.caller,
	}
}

// execute runs prog signed by its bound caller and checks the outcome
// against expect.
func (s *Session) execute(ctx context.Context, prog *Program, expect *Outcome) (*Receipt, error) {
	caller, _ := prog.Bindings.Lookup(CallerPlaceholder)
	receipt, err := s.engine.Execute(ctx, prog.Text, Authorization{Account: caller})
	if err != nil {
		return nil, fmt.Errorf("rtm: execute %q: %w", prog.Name, err)
	}
	if receipt.Program == "" {
		receipt.Program = prog.Text
	}
	s.logger.Debug("Executed manifest", "name", prog.Name, "outcome", receipt.Outcome, "fee", receipt.Fee)

	if expect != nil {
		if !outcomeMatches(*expect, receipt.Outcome) {
			return receipt, &UnexpectedOutcomeError{Call: prog.Name, Expected: *expect, Got: receipt.Outcome}
		}
		return receipt, nil
	}
	if !receipt.Outcome.IsSuccess() {
		return receipt, &EngineRejectionError{Call: prog.Name, Receipt: receipt}
	}
	return receipt, nil
}

func outcomeMatches(expected, got Outcome) bool {
	return expected.Status == got.Status && strings.Contains(got.Message, expected.Message)
}
