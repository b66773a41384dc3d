package rtm

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal scales of the ledger's fixed-point types.
const (
	decimalScale        = 18
	preciseDecimalScale = 36
)

// Binding pairs a placeholder name with the literal text that replaces it.
type Binding struct {
	Placeholder string
	Value       string
}

// Bindings is an ordered binding set.
type Bindings []Binding

// Lookup returns the value bound to name.
func (b Bindings) Lookup(name string) (string, bool) {
	for _, binding := range b {
		if binding.Placeholder == name {
			return binding.Value, true
		}
	}
	return "", false
}

// Map returns the bindings keyed by placeholder name.
func (b Bindings) Map() map[string]string {
	m := make(map[string]string, len(b))
	for _, binding := range b {
		m[binding.Placeholder] = binding.Value
	}
	return m
}

// Names returns the placeholder names in binding order.
func (b Bindings) Names() []string {
	names := make([]string, len(b))
	for i, binding := range b {
		names[i] = binding.Placeholder
	}
	return names
}

// CallContext names the ledger entities a call runs against. All names are
// registry names, not addresses.
type CallContext struct {
	Caller    string // account signing the call
	FeePayer  string // account locking fees; the caller when empty
	Component string // component of a method call
	Package   string // package of a function call
	Badge     string // admin badge resource, for calls requiring authorization
}

// Resolve computes the bindings for every placeholder Compile emits for
// target, looking names up in reg. On error no bindings are returned.
func Resolve(target Target, reg Registry, cctx CallContext) (Bindings, error) {
	r := &resolver{reg: reg}

	if err := r.context(target, cctx); err != nil {
		return nil, err
	}
	for i, arg := range target.Arguments() {
		if err := r.argument(arg, argName(i)); err != nil {
			return nil, &ArgumentError{Call: target.Name(), Index: i, Err: err}
		}
	}
	return r.out, nil
}

// resolver accumulates bindings for one Resolve call.
type resolver struct {
	reg Registry
	out Bindings
}

func (r *resolver) add(name, value string) {
	r.out = append(r.out, Binding{Placeholder: name, Value: value})
}

// context binds the placeholders that come from the call context.
func (r *resolver) context(target Target, cctx CallContext) error {
	if cctx.Caller == "" {
		return ErrNoCaller
	}
	caller, err := r.reg.Address(EntityAccount, cctx.Caller)
	if err != nil {
		return err
	}
	payer := caller
	if cctx.FeePayer != "" {
		if payer, err = r.reg.Address(EntityAccount, cctx.FeePayer); err != nil {
			return err
		}
	}
	r.add(FeePayerPlaceholder, payer)
	r.add(CallerPlaceholder, caller)

	if target.RequiresAuthorization() {
		badge, err := r.reg.Address(EntityResource, cctx.Badge)
		if err != nil {
			return err
		}
		r.add(BadgePlaceholder, badge)
	}

	switch target.(type) {
	case *MethodTarget:
		addr, err := r.reg.Address(EntityComponent, cctx.Component)
		if err != nil {
			return err
		}
		r.add(ComponentPlaceholder, addr)
	case *FunctionTarget:
		addr, err := r.reg.Address(EntityPackage, cctx.Package)
		if err != nil {
			return err
		}
		r.add(PackagePlaceholder, addr)
	}
	return nil
}

// argument binds a top-level call argument.
func (r *resolver) argument(arg Argument, name string) error {
	if req, ok := arg.(*ResourceRequest); ok {
		return r.request(req, name)
	}
	return r.value(arg, name)
}

// request binds the amount or id set and the resource address the
// scheduler's acquisition instructions refer to.
func (r *resolver) request(req *ResourceRequest, name string) error {
	addr, err := r.reg.Address(EntityResource, req.Resource())
	if err != nil {
		return err
	}
	fungible, err := r.reg.IsFungible(addr)
	if err != nil {
		return err
	}
	if fungible != req.IsFungible() {
		return fmt.Errorf("%w: %s request for resource %q", ErrResourceKind, req.Kind(), req.Resource())
	}

	if req.IsFungible() {
		amount, err := normalizeDecimal(req.Amount(), "Decimal", decimalScale)
		if err != nil {
			return err
		}
		r.add(fieldName(name, fieldAmount), amount)
	} else {
		ids, err := idList(req.IDs())
		if err != nil {
			return err
		}
		r.add(fieldName(name, fieldIDs), ids)
	}
	r.add(fieldName(name, fieldResource), addr)
	return nil
}

// value binds every placeholder in arg.Generic(name).
func (r *resolver) value(arg Argument, name string) error {
	switch a := arg.(type) {
	case *ScalarArg:
		if a.Kind() == KindUnit {
			return nil
		}
		lit, err := scalarLiteral(a)
		if err != nil {
			return err
		}
		r.add(name, lit)

	case *ReferenceArg:
		addr, err := r.reg.Address(a.Entity(), a.Name())
		if err != nil {
			return err
		}
		r.add(name, addr)

	case *NonFungibleAddressArg:
		addr, err := r.reg.Address(EntityResource, a.Resource())
		if err != nil {
			return err
		}
		r.add(fieldName(name, fieldResource), addr)
		return r.value(a.ID(), fieldName(name, fieldID))

	case *CompositeArg:
		if a.Kind() == KindTuple {
			for i, elem := range a.elems {
				if err := r.value(elem, childName(name, i)); err != nil {
					return err
				}
			}
			return nil
		}
		text, err := r.contents(a)
		if err != nil {
			return err
		}
		r.add(name, text)

	case *ResourceRequest:
		return ErrNestedResourceRequest
	}
	return nil
}

// contents renders the inside of a vector, map, enum or option.
func (r *resolver) contents(a *CompositeArg) (string, error) {
	switch a.Kind() {
	case KindMap:
		parts := make([]string, len(a.entries))
		for i, entry := range a.entries {
			key, err := r.render(entry.Key)
			if err != nil {
				return "", err
			}
			value, err := r.render(entry.Value)
			if err != nil {
				return "", err
			}
			parts[i] = key + " => " + value
		}
		return strings.Join(parts, ", "), nil

	case KindOption:
		if len(a.elems) == 0 {
			return "None", nil
		}
		inner, err := r.render(a.elems[0])
		if err != nil {
			return "", err
		}
		return "Some(" + inner + ")", nil

	case KindEnum:
		tag, err := plainText("Enum", a.tag)
		if err != nil {
			return "", err
		}
		parts := []string{quoted(tag)}
		for _, field := range a.elems {
			text, err := r.render(field)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, ", "), nil

	default:
		parts := make([]string, len(a.elems))
		for i, elem := range a.elems {
			text, err := r.render(elem)
			if err != nil {
				return "", err
			}
			parts[i] = text
		}
		return strings.Join(parts, ", "), nil
	}
}

// render produces the complete literal of arg by binding it under a scratch
// name and substituting into its generic form.
func (r *resolver) render(arg Argument) (string, error) {
	const scratch = "v"
	sub := &resolver{reg: r.reg}
	if err := sub.value(arg, scratch); err != nil {
		return "", err
	}
	return Substitute(arg.Generic(scratch), sub.out)
}

func scalarLiteral(a *ScalarArg) (string, error) {
	switch a.Kind() {
	case KindString:
		return plainText(a.TypeName(), a.Value())
	case KindDecimal:
		return normalizeDecimal(a.Value(), a.TypeName(), decimalScale)
	case KindPreciseDecimal:
		return normalizeDecimal(a.Value(), a.TypeName(), preciseDecimalScale)
	default:
		return a.Value(), nil
	}
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeString(s string) string {
	return stringEscaper.Replace(s)
}

// plainText escapes s for a quoted literal. Text containing a ${name} token
// is rejected so that a fully bound program never holds placeholder syntax.
func plainText(typeName, s string) (string, error) {
	if HasPlaceholders(s) {
		return "", &InvalidLiteralError{Type: typeName, Value: s}
	}
	return escapeString(s), nil
}

// normalizeDecimal returns the canonical base-10 text of s without trailing
// zeros. Values with more than scale significant fractional digits are
// rejected rather than rounded.
func normalizeDecimal(s, typeName string, scale int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if strings.ContainsAny(trimmed, "xXoObB_/") {
		return "", &InvalidLiteralError{Type: typeName, Value: s}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return "", &InvalidLiteralError{Type: typeName, Value: s}
	}
	if !d.Equal(d.Truncate(int32(scale))) {
		return "", &InvalidLiteralError{Type: typeName, Value: s}
	}
	return d.String(), nil
}

// idList renders non-fungible ids as the contents of Array<NonFungibleId>.
func idList(ids []string) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		text, err := plainText("NonFungibleId", id)
		if err != nil {
			return "", err
		}
		parts[i] = `NonFungibleId("` + text + `")`
	}
	return strings.Join(parts, ", "), nil
}
