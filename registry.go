package rtm

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// EntityKind is a registry namespace.
type EntityKind uint8

const (
	EntityAccount EntityKind = iota
	EntityPackage
	EntityComponent
	EntityResource
)

func (k EntityKind) String() string {
	switch k {
	case EntityAccount:
		return "account"
	case EntityPackage:
		return "package"
	case EntityComponent:
		return "component"
	case EntityResource:
		return "resource"
	default:
		return fmt.Sprintf("entity(%d)", uint8(k))
	}
}

// Registry maps human-readable names to ledger addresses. It is read-only
// during a compilation; updates happen between calls.
type Registry interface {
	// Address returns the address registered under name, or an
	// *UnknownNameError.
	Address(kind EntityKind, name string) (string, error)

	// IsFungible reports whether the resource at address is fungible.
	IsFungible(address string) (bool, error)
}

// MemoryRegistry is an in-memory Registry. Names are case-insensitive.
// It is not safe for concurrent use.
type MemoryRegistry struct {
	names    map[EntityKind]map[string]string
	fungible map[string]bool
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		names: map[EntityKind]map[string]string{
			EntityAccount:   {},
			EntityPackage:   {},
			EntityComponent: {},
			EntityResource:  {},
		},
		fungible: make(map[string]bool),
	}
}

func recordedName(name string) string {
	return strings.ToLower(name)
}

// Address implements Registry.
func (r *MemoryRegistry) Address(kind EntityKind, name string) (string, error) {
	addr, ok := r.names[kind][recordedName(name)]
	if !ok {
		return "", &UnknownNameError{Kind: kind, Name: name}
	}
	return addr, nil
}

// IsFungible implements Registry.
func (r *MemoryRegistry) IsFungible(address string) (bool, error) {
	fungible, ok := r.fungible[address]
	if !ok {
		return false, &UnknownNameError{Kind: EntityResource, Name: address}
	}
	return fungible, nil
}

// AddAccount registers an account address.
func (r *MemoryRegistry) AddAccount(name, address string) {
	r.names[EntityAccount][recordedName(name)] = address
}

// AddPackage registers a package address.
func (r *MemoryRegistry) AddPackage(name, address string) {
	r.names[EntityPackage][recordedName(name)] = address
}

// AddComponent registers a component address.
func (r *MemoryRegistry) AddComponent(name, address string) {
	r.names[EntityComponent][recordedName(name)] = address
}

// AddResource registers a resource address. A name that is already
// registered keeps its first address.
func (r *MemoryRegistry) AddResource(name, address string, fungible bool) {
	key := recordedName(name)
	if _, exists := r.names[EntityResource][key]; exists {
		return
	}
	r.names[EntityResource][key] = address
	r.fungible[address] = fungible
}

// Len returns the number of names registered in kind.
func (r *MemoryRegistry) Len(kind EntityKind) int {
	return len(r.names[kind])
}

// registryFile is the YAML layout of a registry snapshot.
type registryFile struct {
	Accounts   map[string]string `yaml:"accounts"`
	Packages   map[string]string `yaml:"packages"`
	Components map[string]string `yaml:"components"`
	Resources  map[string]struct {
		Address  string `yaml:"address"`
		Fungible *bool  `yaml:"fungible"`
	} `yaml:"resources"`
}

// LoadRegistry reads a YAML registry snapshot:
//
//	accounts:   {default: account_sim1...}
//	packages:   {gumball: package_sim1...}
//	components: {machine: component_sim1...}
//	resources:
//	  usd: {address: resource_sim1..., fungible: true}
//
// Resources are fungible unless marked otherwise.
func LoadRegistry(r io.Reader) (*MemoryRegistry, error) {
	var file registryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("rtm: decode registry: %w", err)
	}

	reg := NewMemoryRegistry()
	for name, addr := range file.Accounts {
		reg.AddAccount(name, addr)
	}
	for name, addr := range file.Packages {
		reg.AddPackage(name, addr)
	}
	for name, addr := range file.Components {
		reg.AddComponent(name, addr)
	}
	for name, res := range file.Resources {
		if res.Address == "" {
			return nil, fmt.Errorf("rtm: resource %q has no address", name)
		}
		fungible := res.Fungible == nil || *res.Fungible
		reg.AddResource(name, res.Address, fungible)
	}
	return reg, nil
}
