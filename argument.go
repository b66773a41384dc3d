package rtm

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Kind identifies the variant of an Argument.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindString
	KindDecimal
	KindPreciseDecimal
	KindHash
	KindExpression
	KindEnum
	KindOption
	KindTuple
	KindVector
	KindMap
	KindPackage
	KindComponent
	KindAccount
	KindResource
	KindFungibleBucket
	KindNonFungibleBucket
	KindFungibleProof
	KindNonFungibleProof
	KindNonFungibleAddress
)

var kindNames = [...]string{
	KindUnit:               "unit",
	KindBool:               "bool",
	KindI8:                 "i8",
	KindI16:                "i16",
	KindI32:                "i32",
	KindI64:                "i64",
	KindI128:               "i128",
	KindU8:                 "u8",
	KindU16:                "u16",
	KindU32:                "u32",
	KindU64:                "u64",
	KindU128:               "u128",
	KindString:             "string",
	KindDecimal:            "decimal",
	KindPreciseDecimal:     "precise_decimal",
	KindHash:               "hash",
	KindExpression:         "expression",
	KindEnum:               "enum",
	KindOption:             "option",
	KindTuple:              "tuple",
	KindVector:             "vector",
	KindMap:                "map",
	KindPackage:            "package",
	KindComponent:          "component",
	KindAccount:            "account",
	KindResource:           "resource",
	KindFungibleBucket:     "fungible_bucket",
	KindNonFungibleBucket:  "non_fungible_bucket",
	KindFungibleProof:      "fungible_proof",
	KindNonFungibleProof:   "non_fungible_proof",
	KindNonFungibleAddress: "non_fungible_address",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the kind with the given name, e.g. "fungible_bucket".
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindI8 && k <= KindU128
}

// IsResourceRequest reports whether k asks for an ephemeral bucket or proof.
func (k Kind) IsResourceRequest() bool {
	return k >= KindFungibleBucket && k <= KindNonFungibleProof
}

// IsProof reports whether k is a proof request.
func (k Kind) IsProof() bool {
	return k == KindFungibleProof || k == KindNonFungibleProof
}

// IsReference reports whether k names a ledger entity.
func (k Kind) IsReference() bool {
	return k >= KindPackage && k <= KindResource
}

// Argument is one typed input of a ledger call.
// This is a sealed interface - only types within this package can implement it.
type Argument interface {
	// isArgument is unexported to seal the interface.
	isArgument()

	// Kind returns the variant of this argument.
	Kind() Kind

	// TypeName returns the manifest type tag, e.g. "Decimal" or "Array<u32>".
	TypeName() string

	// Generic returns the argument's manifest syntax with the placeholder
	// ${name} standing in for its literal value.
	Generic(name string) string
}

// Placeholder field suffixes used by resource requests and composite ids.
const (
	fieldAmount   = "amount"
	fieldResource = "resource"
	fieldIDs      = "ids"
	fieldID       = "id"
)

func placeholder(name string) string {
	return "${" + name + "}"
}

// argName names the placeholder of the i-th top-level call argument.
func argName(i int) string {
	return "arg_" + strconv.Itoa(i)
}

// childName names the placeholder of the i-th element nested under parent.
func childName(parent string, i int) string {
	return parent + "_" + strconv.Itoa(i)
}

func fieldName(parent, field string) string {
	return parent + "_" + field
}

// ScalarArg is a single literal value: unit, bool, integers, strings,
// decimals, hashes and expressions.
type ScalarArg struct {
	kind  Kind
	value string
}

func (a *ScalarArg) isArgument() {}

// Kind returns the scalar's kind.
func (a *ScalarArg) Kind() Kind {
	return a.kind
}

// Value returns the literal text of the scalar, before any escaping.
func (a *ScalarArg) Value() string {
	return a.value
}

// TypeName returns the manifest type tag.
func (a *ScalarArg) TypeName() string {
	switch a.kind {
	case KindUnit:
		return "()"
	case KindString:
		return "String"
	case KindDecimal:
		return "Decimal"
	case KindPreciseDecimal:
		return "PreciseDecimal"
	case KindHash:
		return "Hash"
	case KindExpression:
		return "Expression"
	default:
		return a.kind.String()
	}
}

// Generic returns the placeholder rendering of the scalar.
func (a *ScalarArg) Generic(name string) string {
	switch {
	case a.kind == KindUnit:
		return "()"
	case a.kind == KindBool:
		return placeholder(name)
	case a.kind.IsInteger():
		return placeholder(name) + a.TypeName()
	case a.kind == KindString:
		return `"` + placeholder(name) + `"`
	default:
		return a.TypeName() + `("` + placeholder(name) + `")`
	}
}

// Unit creates the unit argument.
func Unit() *ScalarArg {
	return &ScalarArg{kind: KindUnit}
}

// Bool creates a bool argument.
func Bool(v bool) *ScalarArg {
	return &ScalarArg{kind: KindBool, value: strconv.FormatBool(v)}
}

// I8 creates an i8 argument.
func I8(v int8) *ScalarArg {
	return &ScalarArg{kind: KindI8, value: strconv.FormatInt(int64(v), 10)}
}

// I16 creates an i16 argument.
func I16(v int16) *ScalarArg {
	return &ScalarArg{kind: KindI16, value: strconv.FormatInt(int64(v), 10)}
}

// I32 creates an i32 argument.
func I32(v int32) *ScalarArg {
	return &ScalarArg{kind: KindI32, value: strconv.FormatInt(int64(v), 10)}
}

// I64 creates an i64 argument.
func I64(v int64) *ScalarArg {
	return &ScalarArg{kind: KindI64, value: strconv.FormatInt(v, 10)}
}

// I128 creates an i128 argument. A nil value is treated as zero.
func I128(v *big.Int) *ScalarArg {
	if v == nil {
		v = new(big.Int)
	}
	return &ScalarArg{kind: KindI128, value: v.String()}
}

// U8 creates a u8 argument.
func U8(v uint8) *ScalarArg {
	return &ScalarArg{kind: KindU8, value: strconv.FormatUint(uint64(v), 10)}
}

// U16 creates a u16 argument.
func U16(v uint16) *ScalarArg {
	return &ScalarArg{kind: KindU16, value: strconv.FormatUint(uint64(v), 10)}
}

// U32 creates a u32 argument.
func U32(v uint32) *ScalarArg {
	return &ScalarArg{kind: KindU32, value: strconv.FormatUint(uint64(v), 10)}
}

// U64 creates a u64 argument.
func U64(v uint64) *ScalarArg {
	return &ScalarArg{kind: KindU64, value: strconv.FormatUint(v, 10)}
}

// U128 creates a u128 argument. A nil value is treated as zero.
func U128(v *uint256.Int) *ScalarArg {
	if v == nil {
		v = new(uint256.Int)
	}
	return &ScalarArg{kind: KindU128, value: v.Dec()}
}

// String creates a string argument.
func String(v string) *ScalarArg {
	return &ScalarArg{kind: KindString, value: v}
}

// Decimal creates a decimal argument from its base-10 text, e.g. "12.5".
func Decimal(v string) *ScalarArg {
	return &ScalarArg{kind: KindDecimal, value: v}
}

// PreciseDecimal creates a precise decimal argument from its base-10 text.
func PreciseDecimal(v string) *ScalarArg {
	return &ScalarArg{kind: KindPreciseDecimal, value: v}
}

// Hash creates a hash argument.
func Hash(v common.Hash) *ScalarArg {
	return &ScalarArg{kind: KindHash, value: strings.TrimPrefix(v.Hex(), "0x")}
}

// Expression creates a manifest expression argument, e.g. "ENTIRE_WORKTOP".
func Expression(v string) *ScalarArg {
	return &ScalarArg{kind: KindExpression, value: v}
}

// MapEntry is one key/value pair of a map argument.
type MapEntry struct {
	Key   Argument
	Value Argument
}

// Pair creates a map entry.
func Pair(key, value Argument) MapEntry {
	return MapEntry{Key: orUnit(key), Value: orUnit(value)}
}

// CompositeArg is an argument built from other arguments: tuples, vectors,
// maps, enum variants and options.
type CompositeArg struct {
	kind    Kind
	tag     string
	elems   []Argument
	entries []MapEntry
}

func (a *CompositeArg) isArgument() {}

// Kind returns the composite's kind.
func (a *CompositeArg) Kind() Kind {
	return a.kind
}

// Tag returns the enum variant name. Empty for other kinds.
func (a *CompositeArg) Tag() string {
	return a.tag
}

// Elements returns the ordered children of a tuple, vector, enum or option.
func (a *CompositeArg) Elements() []Argument {
	out := make([]Argument, len(a.elems))
	copy(out, a.elems)
	return out
}

// Entries returns the ordered entries of a map.
func (a *CompositeArg) Entries() []MapEntry {
	out := make([]MapEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// TypeName returns the manifest type tag. Vector and map tags are derived
// from their first element.
func (a *CompositeArg) TypeName() string {
	switch a.kind {
	case KindTuple:
		return "Tuple"
	case KindEnum:
		return "Enum"
	case KindOption:
		return "Option"
	case KindVector:
		elem := "()"
		if len(a.elems) > 0 {
			elem = a.elems[0].TypeName()
		}
		return "Array<" + elem + ">"
	case KindMap:
		key, value := "()", "()"
		if len(a.entries) > 0 {
			key = a.entries[0].Key.TypeName()
			value = a.entries[0].Value.TypeName()
		}
		return "Map<" + key + ", " + value + ">"
	default:
		return a.kind.String()
	}
}

// Generic returns the placeholder rendering. Tuples have a fixed shape and
// flatten into one placeholder per child; the other composites vary in shape
// between calls and take a single placeholder for their whole contents.
func (a *CompositeArg) Generic(name string) string {
	switch a.kind {
	case KindTuple:
		parts := make([]string, len(a.elems))
		for i, elem := range a.elems {
			parts[i] = elem.Generic(childName(name, i))
		}
		return "Tuple(" + strings.Join(parts, ", ") + ")"
	case KindVector, KindMap, KindEnum:
		return a.TypeName() + "(" + placeholder(name) + ")"
	default:
		return placeholder(name)
	}
}

// Tuple creates a tuple argument.
func Tuple(elems ...Argument) *CompositeArg {
	return &CompositeArg{kind: KindTuple, elems: unitsForNil(elems)}
}

// Vector creates a vector argument. Elements should share one type.
func Vector(elems ...Argument) *CompositeArg {
	return &CompositeArg{kind: KindVector, elems: unitsForNil(elems)}
}

// Map creates a map argument with ordered entries.
func Map(entries ...MapEntry) *CompositeArg {
	return &CompositeArg{kind: KindMap, entries: entries}
}

// Enum creates an enum variant argument.
func Enum(tag string, fields ...Argument) *CompositeArg {
	return &CompositeArg{kind: KindEnum, tag: tag, elems: unitsForNil(fields)}
}

// Some creates a present option argument. Some(nil) is None.
func Some(v Argument) *CompositeArg {
	if v == nil {
		return None()
	}
	return &CompositeArg{kind: KindOption, elems: []Argument{v}}
}

// None creates an absent option argument.
func None() *CompositeArg {
	return &CompositeArg{kind: KindOption}
}

// ReferenceArg names a package, component, account or resource known to
// the registry. The name stays opaque until bound.
type ReferenceArg struct {
	kind Kind
	name string
}

func (a *ReferenceArg) isArgument() {}

// Kind returns the reference's kind.
func (a *ReferenceArg) Kind() Kind {
	return a.kind
}

// Name returns the registry name.
func (a *ReferenceArg) Name() string {
	return a.name
}

// Entity returns the registry namespace the name lives in.
func (a *ReferenceArg) Entity() EntityKind {
	switch a.kind {
	case KindPackage:
		return EntityPackage
	case KindComponent:
		return EntityComponent
	case KindAccount:
		return EntityAccount
	default:
		return EntityResource
	}
}

// TypeName returns the address type tag. Accounts are components.
func (a *ReferenceArg) TypeName() string {
	switch a.kind {
	case KindPackage:
		return "PackageAddress"
	case KindResource:
		return "ResourceAddress"
	default:
		return "ComponentAddress"
	}
}

// Generic returns the placeholder rendering.
func (a *ReferenceArg) Generic(name string) string {
	return a.TypeName() + `("` + placeholder(name) + `")`
}

// PackageRef references a package by registry name.
func PackageRef(name string) *ReferenceArg {
	return &ReferenceArg{kind: KindPackage, name: name}
}

// ComponentRef references a component by registry name.
func ComponentRef(name string) *ReferenceArg {
	return &ReferenceArg{kind: KindComponent, name: name}
}

// AccountRef references an account by registry name.
func AccountRef(name string) *ReferenceArg {
	return &ReferenceArg{kind: KindAccount, name: name}
}

// ResourceRef references a resource by registry name.
func ResourceRef(name string) *ReferenceArg {
	return &ReferenceArg{kind: KindResource, name: name}
}

// ResourceRequest asks for an ephemeral bucket or proof of a resource held
// by the caller. Fungible requests carry an amount, non-fungible ones an id set.
type ResourceRequest struct {
	kind     Kind
	resource string
	amount   string
	ids      mapset.Set[string]
}

func (a *ResourceRequest) isArgument() {}

// Kind returns the request's kind.
func (a *ResourceRequest) Kind() Kind {
	return a.kind
}

// Resource returns the registry name of the requested resource.
func (a *ResourceRequest) Resource() string {
	return a.resource
}

// Amount returns the requested amount of a fungible request.
func (a *ResourceRequest) Amount() string {
	return a.amount
}

// IDs returns the requested non-fungible ids, sorted.
func (a *ResourceRequest) IDs() []string {
	if a.ids == nil {
		return nil
	}
	ids := a.ids.ToSlice()
	sort.Strings(ids)
	return ids
}

// IsFungible reports whether the request is by amount.
func (a *ResourceRequest) IsFungible() bool {
	return a.kind == KindFungibleBucket || a.kind == KindFungibleProof
}

// TypeName returns "Bucket" or "Proof".
func (a *ResourceRequest) TypeName() string {
	if a.kind.IsProof() {
		return "Proof"
	}
	return "Bucket"
}

// Generic returns a placeholder rendering. The scheduler replaces requests
// with handle literals, so this form only shows up for nested requests,
// which fail to bind.
func (a *ResourceRequest) Generic(name string) string {
	return a.TypeName() + "(" + placeholder(name) + ")"
}

// FungibleBucket requests a bucket holding amount of the named resource.
func FungibleBucket(resource, amount string) *ResourceRequest {
	return &ResourceRequest{kind: KindFungibleBucket, resource: resource, amount: amount}
}

// NonFungibleBucket requests a bucket holding the given ids of the named resource.
func NonFungibleBucket(resource string, ids ...string) *ResourceRequest {
	return &ResourceRequest{kind: KindNonFungibleBucket, resource: resource, ids: mapset.NewThreadUnsafeSet(ids...)}
}

// FungibleProof requests a proof of amount of the named resource.
func FungibleProof(resource, amount string) *ResourceRequest {
	return &ResourceRequest{kind: KindFungibleProof, resource: resource, amount: amount}
}

// NonFungibleProof requests a proof of the given ids of the named resource.
func NonFungibleProof(resource string, ids ...string) *ResourceRequest {
	return &ResourceRequest{kind: KindNonFungibleProof, resource: resource, ids: mapset.NewThreadUnsafeSet(ids...)}
}

// NonFungibleAddressArg pairs a resource name with one non-fungible id.
type NonFungibleAddressArg struct {
	resource string
	id       Argument
}

func (a *NonFungibleAddressArg) isArgument() {}

// Kind returns KindNonFungibleAddress.
func (a *NonFungibleAddressArg) Kind() Kind {
	return KindNonFungibleAddress
}

// Resource returns the registry name of the resource.
func (a *NonFungibleAddressArg) Resource() string {
	return a.resource
}

// ID returns the identifier argument.
func (a *NonFungibleAddressArg) ID() Argument {
	return a.id
}

// TypeName returns "NonFungibleAddress".
func (a *NonFungibleAddressArg) TypeName() string {
	return "NonFungibleAddress"
}

// Generic renders the resource placeholder next to the id's own generic form.
func (a *NonFungibleAddressArg) Generic(name string) string {
	return `NonFungibleAddress("` + placeholder(fieldName(name, fieldResource)) + `", ` +
		a.id.Generic(fieldName(name, fieldID)) + ")"
}

// NonFungibleAddress creates a composite id argument. A nil id is the unit
// value.
func NonFungibleAddress(resource string, id Argument) *NonFungibleAddressArg {
	return &NonFungibleAddressArg{resource: resource, id: orUnit(id)}
}

// orUnit treats a nil argument as the unit value, the way I128 and U128
// treat a nil integer as zero.
func orUnit(a Argument) Argument {
	if a == nil {
		return Unit()
	}
	return a
}

func unitsForNil(args []Argument) []Argument {
	out := make([]Argument, len(args))
	for i, a := range args {
		out[i] = orUnit(a)
	}
	return out
}
