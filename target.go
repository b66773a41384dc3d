package rtm

// Target is something a manifest can call: a component method or a
// blueprint function.
// This is a sealed interface - only types within this package can implement it.
type Target interface {
	isTarget()

	// Name returns the call name, which keys the template cache.
	Name() string

	// Arguments returns the ordered call arguments.
	Arguments() []Argument

	// RequiresAuthorization reports whether the caller must present the
	// admin badge before the call.
	RequiresAuthorization() bool
}

// MethodTarget calls a method on the current component.
// MethodTarget is immutable - modifier methods return new instances.
type MethodTarget struct {
	method       string
	manifestName string
	args         []Argument
	adminBadge   bool
}

// NewMethod creates a method call target.
func NewMethod(method string, args ...Argument) *MethodTarget {
	return &MethodTarget{method: method, args: args}
}

func (t *MethodTarget) isTarget() {}

// Method returns the component method name.
func (t *MethodTarget) Method() string {
	return t.method
}

// Name returns the template name: the custom manifest name if one was set,
// the method name otherwise.
func (t *MethodTarget) Name() string {
	if t.manifestName != "" {
		return t.manifestName
	}
	return t.method
}

// Arguments returns a copy of the call arguments.
func (t *MethodTarget) Arguments() []Argument {
	out := make([]Argument, len(t.args))
	copy(out, t.args)
	return out
}

// RequiresAuthorization reports whether the method needs the admin badge.
func (t *MethodTarget) RequiresAuthorization() bool {
	return t.adminBadge
}

// WithAdminBadge marks the method as requiring the admin badge.
//
// Returns a new MethodTarget with the flag set.
func (t *MethodTarget) WithAdminBadge() *MethodTarget {
	clone := t.clone()
	clone.adminBadge = true
	return clone
}

// WithManifestName caches the method's template under name instead of the
// method name. Use it when one method is called with differently shaped
// arguments.
//
// Returns a new MethodTarget with the name set.
func (t *MethodTarget) WithManifestName(name string) *MethodTarget {
	clone := t.clone()
	clone.manifestName = name
	return clone
}

func (t *MethodTarget) clone() *MethodTarget {
	clone := *t
	clone.args = make([]Argument, len(t.args))
	copy(clone.args, t.args)
	return &clone
}

// DefaultInstantiationFunction is the function NewInstantiation calls.
const DefaultInstantiationFunction = "instantiate"

// FunctionTarget calls a blueprint function of the current package.
type FunctionTarget struct {
	blueprint string
	function  string
	args      []Argument
}

// NewFunction creates a blueprint function call target.
func NewFunction(blueprint, function string, args ...Argument) *FunctionTarget {
	return &FunctionTarget{blueprint: blueprint, function: function, args: args}
}

// NewInstantiation creates a target for the blueprint's conventional
// instantiation function.
func NewInstantiation(blueprint string, args ...Argument) *FunctionTarget {
	return NewFunction(blueprint, DefaultInstantiationFunction, args...)
}

func (t *FunctionTarget) isTarget() {}

// Blueprint returns the blueprint name.
func (t *FunctionTarget) Blueprint() string {
	return t.blueprint
}

// Function returns the function name.
func (t *FunctionTarget) Function() string {
	return t.function
}

// Name returns "<blueprint>_<function>".
func (t *FunctionTarget) Name() string {
	return t.blueprint + "_" + t.function
}

// Arguments returns a copy of the call arguments.
func (t *FunctionTarget) Arguments() []Argument {
	out := make([]Argument, len(t.args))
	copy(out, t.args)
	return out
}

// RequiresAuthorization is always false: functions run before any admin
// badge exists.
func (t *FunctionTarget) RequiresAuthorization() bool {
	return false
}
