// Package scheme defines the pluggable mapping from attribute
// documents to directory identifiers.
package scheme

import (
	"fmt"
	"sync"

	"github.com/mwantia/grove/data"
)

// Scheme maps an attribute document to a filesystem-legal identifier.
// Compute must be deterministic: equal attributes always produce the
// same identifier for a fixed scheme version.
//
// Validate is an advisory syntactic pre-filter: a false result proves
// the string cannot be the image of any attributes, a true result
// proves nothing. Embed NoValidation when no cheap check exists.
type Scheme interface {
	// Returns the identifier name registered for this scheme.
	Name() string

	Compute(attrs data.Attrs) (string, error)

	Validate(id string) bool
}

// NoValidation is the default validator accepting every string.
type NoValidation struct{}

func (NoValidation) Validate(string) bool { return true }

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Scheme)
)

// Register makes a scheme available for lookup by name, typically from
// an init function. Registering a duplicate name panics.
func Register(s Scheme) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Name()]; exists {
		panic(fmt.Sprintf("grove: scheme %q registered twice", s.Name()))
	}
	registry[s.Name()] = s
}

// Lookup resolves a registered scheme by name.
func Lookup(name string) (Scheme, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", data.ErrSchemeUnknown, name)
	}
	return s, nil
}
