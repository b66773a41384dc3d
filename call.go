package rtm

import (
	"context"
)

// Call is a pending invocation of a target within a session.
// Call is immutable - modifier methods return new instances.
type Call struct {
	session *Session
	target  Target
	cctx    CallContext
	expect  *Outcome
}

// Target returns the call target.
func (c *Call) Target() Target {
	return c.target
}

// Context returns the call context the call will be bound with.
func (c *Call) Context() CallContext {
	return c.cctx
}

// As runs the call from the named account instead of the session caller.
//
// Returns a new Call with the caller set.
func (c *Call) As(account string) *Call {
	clone := c.clone()
	clone.cctx.Caller = account
	return clone
}

// OnComponent sets the component a method target is called on.
//
// Returns a new Call with the component set.
func (c *Call) OnComponent(name string) *Call {
	clone := c.clone()
	clone.cctx.Component = name
	return clone
}

// OnPackage sets the package a function target is called in.
//
// Returns a new Call with the package set.
func (c *Call) OnPackage(name string) *Call {
	clone := c.clone()
	clone.cctx.Package = name
	return clone
}

// WithBadge sets the admin badge resource for targets requiring authorization.
//
// Returns a new Call with the badge set.
func (c *Call) WithBadge(resource string) *Call {
	clone := c.clone()
	clone.cctx.Badge = resource
	return clone
}

// FeePayer makes the named account lock the fee instead of the caller.
//
// Returns a new Call with the fee payer set.
func (c *Call) FeePayer(account string) *Call {
	clone := c.clone()
	clone.cctx.FeePayer = account
	return clone
}

// Expect declares the outcome the call should have. A failed outcome that
// matches is not an error. An expected message matches any outcome message
// containing it.
//
// Returns a new Call with the expectation set.
func (c *Call) Expect(o Outcome) *Call {
	clone := c.clone()
	clone.expect = &o
	return clone
}

// Prepare builds the final program without executing it.
func (c *Call) Prepare() (*Program, error) {
	return c.session.Prepare(c.target, c.cctx)
}

// Run prepares and executes the call. A failed outcome is returned as an
// *EngineRejectionError alongside the receipt, unless it was expected.
// Nothing is retried.
func (c *Call) Run(ctx context.Context) (*Receipt, error) {
	prog, err := c.Prepare()
	if err != nil {
		return nil, err
	}
	return c.session.execute(ctx, prog, c.expect)
}

func (c *Call) clone() *Call {
	clone := *c
	return &clone
}
