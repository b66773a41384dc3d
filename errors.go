package rtm

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrUnknownRegistryName indicates a call referenced a name the registry never saw.
	ErrUnknownRegistryName = errors.New("rtm: unknown registry name")

	// ErrMissingBinding indicates a placeholder in template text has no binding.
	ErrMissingBinding = errors.New("rtm: placeholder has no binding")

	// ErrMalformedTemplate indicates a cached template is unreadable or inconsistent.
	ErrMalformedTemplate = errors.New("rtm: malformed template")

	// ErrEngineRejection indicates the execution engine reported a failed program.
	ErrEngineRejection = errors.New("rtm: program rejected by engine")

	// ErrNestedResourceRequest indicates a bucket or proof request inside a composite argument.
	ErrNestedResourceRequest = errors.New("rtm: bucket and proof requests cannot be nested")

	// ErrResourceKind indicates a fungible request for a non-fungible resource or vice versa.
	ErrResourceKind = errors.New("rtm: resource kind does not match request")

	// ErrInvalidLiteral indicates an argument value that has no manifest literal form.
	ErrInvalidLiteral = errors.New("rtm: invalid literal")

	// ErrHandleOrder indicates a handle was referenced before it was created, or reused.
	ErrHandleOrder = errors.New("rtm: handle used out of order")

	// ErrCleanupOrder indicates a cleanup instruction outside the tail of the manifest.
	ErrCleanupOrder = errors.New("rtm: cleanup instruction out of order")

	// ErrNoCaller indicates a call was prepared without a calling account.
	ErrNoCaller = errors.New("rtm: no caller account set")

	// ErrTemplateNotFound indicates a named manifest template is not in the store.
	ErrTemplateNotFound = errors.New("rtm: template not found")
)

// UnknownNameError indicates a registry lookup for a name that is not registered.
type UnknownNameError struct {
	Kind EntityKind
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("rtm: no %s named %q in registry", e.Kind, e.Name)
}

func (e *UnknownNameError) Unwrap() error {
	return ErrUnknownRegistryName
}

// MissingBindingError names the placeholder that could not be substituted.
type MissingBindingError struct {
	Placeholder string
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("rtm: placeholder ${%s} has no binding", e.Placeholder)
}

func (e *MissingBindingError) Unwrap() error {
	return ErrMissingBinding
}

// MalformedTemplateError indicates a corrupt cache entry.
type MalformedTemplateError struct {
	Name string
	Err  error
}

func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("rtm: malformed template %q: %v", e.Name, e.Err)
}

func (e *MalformedTemplateError) Unwrap() []error {
	return []error{ErrMalformedTemplate, e.Err}
}

// ArgumentError indicates an issue with a call argument.
type ArgumentError struct {
	Call  string
	Index int
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("rtm: argument %d for call %q: %v", e.Index, e.Call, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// TemplateNotFoundError names a manifest template missing from the store.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("rtm: no template named %q", e.Name)
}

func (e *TemplateNotFoundError) Unwrap() error {
	return ErrTemplateNotFound
}

// InvalidLiteralError indicates a value that cannot be rendered as its manifest type.
type InvalidLiteralError struct {
	Type  string
	Value string
}

func (e *InvalidLiteralError) Error() string {
	return fmt.Sprintf("rtm: invalid %s literal %q", e.Type, e.Value)
}

func (e *InvalidLiteralError) Unwrap() error {
	return ErrInvalidLiteral
}

// OrderError reports the instruction that broke a manifest ordering invariant.
type OrderError struct {
	Index  int
	Opcode Opcode
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("rtm: instruction %d (%s): %v", e.Index, e.Opcode, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// EngineRejectionError carries a failed outcome back to the caller verbatim.
type EngineRejectionError struct {
	Call    string
	Receipt *Receipt
}

func (e *EngineRejectionError) Error() string {
	return fmt.Sprintf("rtm: call %q rejected: %s", e.Call, e.Receipt.Outcome)
}

func (e *EngineRejectionError) Unwrap() error {
	return ErrEngineRejection
}

// UnexpectedOutcomeError indicates an engine outcome that differs from the expected one.
type UnexpectedOutcomeError struct {
	Call     string
	Expected Outcome
	Got      Outcome
}

func (e *UnexpectedOutcomeError) Error() string {
	return fmt.Sprintf("rtm: call %q: expected %s, got %s", e.Call, e.Expected, e.Got)
}
