package rtm

import (
	"context"
)

// ManifestCall is a pending run of a hand-written manifest template, such as
// a .rtm file kept in the rtm/ directory of the package under test. Its
// placeholders are filled from explicit bindings rather than a target.
// ManifestCall is immutable - modifier methods return new instances.
type ManifestCall struct {
	session  *Session
	name     string
	caller   string
	bindings Bindings
	expect   *Outcome
}

// Name returns the template name.
func (m *ManifestCall) Name() string {
	return m.name
}

// Bindings returns the explicit bindings added so far.
func (m *ManifestCall) Bindings() Bindings {
	return append(Bindings(nil), m.bindings...)
}

// Bind sets the literal text for placeholder, replacing an earlier binding
// of the same name.
//
// Returns a new ManifestCall with the binding added.
func (m *ManifestCall) Bind(placeholder, value string) *ManifestCall {
	clone := m.clone()
	clone.bindings = withBinding(m.bindings, Binding{Placeholder: placeholder, Value: value})
	return clone
}

// BindAll adds every binding in bindings, in order.
//
// Returns a new ManifestCall with the bindings added.
func (m *ManifestCall) BindAll(bindings Bindings) *ManifestCall {
	clone := m.clone()
	for _, b := range bindings {
		clone.bindings = withBinding(clone.bindings, b)
	}
	return clone
}

// As runs the manifest from the named account instead of the session caller.
//
// Returns a new ManifestCall with the caller set.
func (m *ManifestCall) As(account string) *ManifestCall {
	clone := m.clone()
	clone.caller = account
	return clone
}

// Expect declares the outcome the run should have.
//
// Returns a new ManifestCall with the expectation set.
func (m *ManifestCall) Expect(o Outcome) *ManifestCall {
	clone := m.clone()
	clone.expect = &o
	return clone
}

// Prepare loads the template and substitutes the bindings without executing.
// ${caller_address} and ${fee_payer_address} default to the caller's address
// unless bound explicitly. Every other placeholder must be bound.
func (m *ManifestCall) Prepare() (*Program, error) {
	text, err := m.session.cache.Get(m.name)
	if err != nil {
		return nil, err
	}

	bindings := m.Bindings()
	if m.caller == "" {
		if _, ok := bindings.Lookup(CallerPlaceholder); !ok {
			return nil, ErrNoCaller
		}
	} else {
		addr, err := m.session.registry.Address(EntityAccount, m.caller)
		if err != nil {
			return nil, err
		}
		for _, name := range []string{CallerPlaceholder, FeePayerPlaceholder} {
			if _, ok := bindings.Lookup(name); !ok {
				bindings = append(bindings, Binding{Placeholder: name, Value: addr})
			}
		}
	}

	program, err := Substitute(text, bindings)
	if err != nil {
		return nil, err
	}
	m.session.logger.Trace("Prepared custom manifest", "name", m.name, "bindings", len(bindings))
	return &Program{
		Name:     m.name,
		Template: text,
		Bindings: bindings,
		Text:     program,
	}, nil
}

// Run prepares and executes the manifest. The receipt carries the program
// text that was run. Outcomes are checked as for Call.Run.
func (m *ManifestCall) Run(ctx context.Context) (*Receipt, error) {
	prog, err := m.Prepare()
	if err != nil {
		return nil, err
	}
	return m.session.execute(ctx, prog, m.expect)
}

func (m *ManifestCall) clone() *ManifestCall {
	clone := *m
	return &clone
}

// withBinding returns a copy of bindings with b set.
func withBinding(bindings Bindings, b Binding) Bindings {
	out := make(Bindings, 0, len(bindings)+1)
	for _, existing := range bindings {
		if existing.Placeholder != b.Placeholder {
			out = append(out, existing)
		}
	}
	return append(out, b)
}
