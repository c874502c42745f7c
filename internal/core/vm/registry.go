package vm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Method handles one ABI method. args are the unpacked inputs in
// declaration order; the returned values are packed as the outputs.
type Method func(ctx *Context, args []interface{}) ([]interface{}, error)

// Definition describes a native contract kind.
type Definition struct {
	// Name is the contract kind, stored as the account's code.
	Name string

	// ABI is the parsed interface used for dispatch, events and errors.
	ABI abi.ABI

	// Constructor runs once at deployment with the unpacked constructor
	// arguments. Optional.
	Constructor Method

	// Methods maps ABI method names to handlers.
	Methods map[string]Method

	// Receive handles plain value transfers. Contracts without one reject
	// value sent without calldata.
	Receive func(ctx *Context) error
}

var (
	registryMu  sync.RWMutex
	definitions = make(map[string]*Definition)
)

// MustParseABI parses a JSON ABI definition, panicking on malformed input.
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("invalid ABI: " + err.Error())
	}
	return parsed
}

// Register makes a contract kind deployable. It panics when a kind is
// registered twice or when an ABI method has no handler.
func Register(def *Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := definitions[def.Name]; exists {
		panic(fmt.Sprintf("contract kind %q already registered", def.Name))
	}
	for name := range def.ABI.Methods {
		if _, ok := def.Methods[name]; !ok {
			panic(fmt.Sprintf("contract kind %q: no handler for method %q", def.Name, name))
		}
	}
	definitions[def.Name] = def
}

// Lookup returns the definition of a registered kind.
func Lookup(kind string) (*Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := definitions[kind]
	return def, ok
}

// Kinds returns the registered kinds in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(definitions))
	for name := range definitions {
		kinds = append(kinds, name)
	}
	sort.Strings(kinds)
	return kinds
}
