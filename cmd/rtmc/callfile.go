package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	rtm "github.com/branched-services/go-rtm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// callFile describes one call in YAML:
//
//	method: buy_gumball
//	component: machine
//	caller: default
//	args:
//	  - fungible_bucket: {resource: xrd, amount: "10"}
//
// Each argument is a single-key map from kind name to value.
type callFile struct {
	Method     string      `yaml:"method"`
	Name       string      `yaml:"name"`
	Blueprint  string      `yaml:"blueprint"`
	Function   string      `yaml:"function"`
	Component  string      `yaml:"component"`
	Package    string      `yaml:"package"`
	Caller     string      `yaml:"caller"`
	FeePayer   string      `yaml:"fee_payer"`
	AdminBadge string      `yaml:"admin_badge"`
	Args       []yaml.Node `yaml:"args"`
}

func loadCallFile(path string) (*callFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeCallFile(f)
}

func decodeCallFile(r io.Reader) (*callFile, error) {
	var call callFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&call); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty call file")
		}
		return nil, fmt.Errorf("decode call file: %w", err)
	}
	return &call, nil
}

// Target builds the call target described by the file.
func (c *callFile) Target() (rtm.Target, error) {
	args := make([]rtm.Argument, len(c.Args))
	for i := range c.Args {
		arg, err := parseArgument(&c.Args[i])
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = arg
	}

	switch {
	case c.Method != "" && c.Blueprint != "":
		return nil, errors.New("call file sets both method and blueprint")
	case c.Method != "":
		target := rtm.NewMethod(c.Method, args...)
		if c.Name != "" {
			target = target.WithManifestName(c.Name)
		}
		if c.AdminBadge != "" {
			target = target.WithAdminBadge()
		}
		return target, nil
	case c.Blueprint != "":
		if c.AdminBadge != "" {
			return nil, errors.New("function calls cannot require an admin badge")
		}
		if c.Function == "" {
			return rtm.NewInstantiation(c.Blueprint, args...), nil
		}
		return rtm.NewFunction(c.Blueprint, c.Function, args...), nil
	default:
		return nil, errors.New("call file sets neither method nor blueprint")
	}
}

// Context returns the call context named by the file.
func (c *callFile) Context() rtm.CallContext {
	return rtm.CallContext{
		Caller:    c.Caller,
		FeePayer:  c.FeePayer,
		Component: c.Component,
		Package:   c.Package,
		Badge:     c.AdminBadge,
	}
}

type fungibleRequest struct {
	Resource string `yaml:"resource"`
	Amount   string `yaml:"amount"`
}

type nonFungibleRequest struct {
	Resource string   `yaml:"resource"`
	IDs      []string `yaml:"ids"`
}

type nonFungibleAddress struct {
	Resource string    `yaml:"resource"`
	ID       yaml.Node `yaml:"id"`
}

type mapEntry struct {
	Key   yaml.Node `yaml:"key"`
	Value yaml.Node `yaml:"value"`
}

type enumVariant struct {
	Tag    string      `yaml:"tag"`
	Fields []yaml.Node `yaml:"fields"`
}

// parseArgument decodes a single-key map node into an argument.
// Bounds of a signed 128-bit integer.
var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

func parseArgument(node *yaml.Node) (rtm.Argument, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: argument must be a map with a single kind key", node.Line)
	}
	key, value := node.Content[0], node.Content[1]
	kind, ok := rtm.ParseKind(key.Value)
	if !ok {
		return nil, fmt.Errorf("line %d: unknown argument kind %q", key.Line, key.Value)
	}

	arg, err := parseValue(kind, value)
	if err != nil {
		return nil, fmt.Errorf("line %d: %s: %w", value.Line, kind, err)
	}
	return arg, nil
}

func parseValue(kind rtm.Kind, node *yaml.Node) (rtm.Argument, error) {
	switch kind {
	case rtm.KindUnit:
		return rtm.Unit(), nil
	case rtm.KindBool:
		v, err := strconv.ParseBool(node.Value)
		if err != nil {
			return nil, err
		}
		return rtm.Bool(v), nil
	case rtm.KindI8, rtm.KindI16, rtm.KindI32, rtm.KindI64:
		return parseSigned(kind, node.Value)
	case rtm.KindU8, rtm.KindU16, rtm.KindU32, rtm.KindU64:
		return parseUnsigned(kind, node.Value)
	case rtm.KindI128:
		v, ok := new(big.Int).SetString(node.Value, 10)
		if !ok || v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
			return nil, fmt.Errorf("invalid i128 %q", node.Value)
		}
		return rtm.I128(v), nil
	case rtm.KindU128:
		v, err := uint256.FromDecimal(node.Value)
		if err != nil {
			return nil, err
		}
		if v.BitLen() > 128 {
			return nil, fmt.Errorf("u128 out of range: %s", node.Value)
		}
		return rtm.U128(v), nil
	case rtm.KindString:
		return rtm.String(node.Value), nil
	case rtm.KindDecimal:
		return rtm.Decimal(node.Value), nil
	case rtm.KindPreciseDecimal:
		return rtm.PreciseDecimal(node.Value), nil
	case rtm.KindExpression:
		return rtm.Expression(node.Value), nil
	case rtm.KindHash:
		return parseHash(node.Value)

	case rtm.KindPackage:
		return rtm.PackageRef(node.Value), nil
	case rtm.KindComponent:
		return rtm.ComponentRef(node.Value), nil
	case rtm.KindAccount:
		return rtm.AccountRef(node.Value), nil
	case rtm.KindResource:
		return rtm.ResourceRef(node.Value), nil

	case rtm.KindFungibleBucket, rtm.KindFungibleProof:
		var req fungibleRequest
		if err := node.Decode(&req); err != nil {
			return nil, err
		}
		if req.Resource == "" || req.Amount == "" {
			return nil, errors.New("resource and amount are required")
		}
		if kind == rtm.KindFungibleProof {
			return rtm.FungibleProof(req.Resource, req.Amount), nil
		}
		return rtm.FungibleBucket(req.Resource, req.Amount), nil

	case rtm.KindNonFungibleBucket, rtm.KindNonFungibleProof:
		var req nonFungibleRequest
		if err := node.Decode(&req); err != nil {
			return nil, err
		}
		if req.Resource == "" || len(req.IDs) == 0 {
			return nil, errors.New("resource and ids are required")
		}
		if kind == rtm.KindNonFungibleProof {
			return rtm.NonFungibleProof(req.Resource, req.IDs...), nil
		}
		return rtm.NonFungibleBucket(req.Resource, req.IDs...), nil

	case rtm.KindNonFungibleAddress:
		var addr nonFungibleAddress
		if err := node.Decode(&addr); err != nil {
			return nil, err
		}
		id, err := parseArgument(&addr.ID)
		if err != nil {
			return nil, err
		}
		return rtm.NonFungibleAddress(addr.Resource, id), nil

	case rtm.KindTuple, rtm.KindVector:
		var nodes []yaml.Node
		if err := node.Decode(&nodes); err != nil {
			return nil, err
		}
		elems, err := parseArguments(nodes)
		if err != nil {
			return nil, err
		}
		if kind == rtm.KindTuple {
			return rtm.Tuple(elems...), nil
		}
		return rtm.Vector(elems...), nil

	case rtm.KindMap:
		var entries []mapEntry
		if err := node.Decode(&entries); err != nil {
			return nil, err
		}
		pairs := make([]rtm.MapEntry, len(entries))
		for i := range entries {
			k, err := parseArgument(&entries[i].Key)
			if err != nil {
				return nil, err
			}
			v, err := parseArgument(&entries[i].Value)
			if err != nil {
				return nil, err
			}
			pairs[i] = rtm.Pair(k, v)
		}
		return rtm.Map(pairs...), nil

	case rtm.KindEnum:
		var variant enumVariant
		if err := node.Decode(&variant); err != nil {
			return nil, err
		}
		if variant.Tag == "" {
			return nil, errors.New("enum tag is required")
		}
		fields, err := parseArguments(variant.Fields)
		if err != nil {
			return nil, err
		}
		return rtm.Enum(variant.Tag, fields...), nil

	case rtm.KindOption:
		if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
			return rtm.None(), nil
		}
		inner, err := parseArgument(node)
		if err != nil {
			return nil, err
		}
		return rtm.Some(inner), nil
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

func parseArguments(nodes []yaml.Node) ([]rtm.Argument, error) {
	args := make([]rtm.Argument, len(nodes))
	for i := range nodes {
		arg, err := parseArgument(&nodes[i])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func parseSigned(kind rtm.Kind, s string) (rtm.Argument, error) {
	bits := map[rtm.Kind]int{rtm.KindI8: 8, rtm.KindI16: 16, rtm.KindI32: 32, rtm.KindI64: 64}[kind]
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return nil, err
	}
	switch kind {
	case rtm.KindI8:
		return rtm.I8(int8(v)), nil
	case rtm.KindI16:
		return rtm.I16(int16(v)), nil
	case rtm.KindI32:
		return rtm.I32(int32(v)), nil
	default:
		return rtm.I64(v), nil
	}
}

func parseUnsigned(kind rtm.Kind, s string) (rtm.Argument, error) {
	bits := map[rtm.Kind]int{rtm.KindU8: 8, rtm.KindU16: 16, rtm.KindU32: 32, rtm.KindU64: 64}[kind]
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return nil, err
	}
	switch kind {
	case rtm.KindU8:
		return rtm.U8(uint8(v)), nil
	case rtm.KindU16:
		return rtm.U16(uint16(v)), nil
	case rtm.KindU32:
		return rtm.U32(uint32(v)), nil
	default:
		return rtm.U64(v), nil
	}
}

func parseHash(s string) (rtm.Argument, error) {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != common.HashLength {
		return nil, fmt.Errorf("hash must be %d bytes, got %d", common.HashLength, len(b))
	}
	return rtm.Hash(common.BytesToHash(b)), nil
}
