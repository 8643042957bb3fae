package data

import (
	"regexp"
	"sync"
)

// Attrs is the identity-bearing metadata document of a directory. A nil
// map represents absent attributes. Under a workspace the attributes
// determine the directory's name, so every mutation is a potential
// rename.
type Attrs map[string]any

// Doc is the secondary, identity-independent metadata document of a
// directory. Changing it never renames anything.
type Doc map[string]any

// Attribute keys should look like identifiers. Other keys are accepted
// but their ordering and collision behavior is undefined, so the first
// use of each offender is reported through the warn hook.
var keyPattern = regexp.MustCompile(`^[A-Za-z_][0-9A-Za-z_]*$`)

var (
	warnedKeys sync.Map
	warnMu     sync.RWMutex
	warnFunc   func(format string, args ...any)
)

// SetKeyWarnFunc installs the hook invoked once per non-conforming
// attribute key. The hook is process-global and last-wins: with
// multiple workspaces open, the most recently installed hook receives
// all warnings. A nil hook disables the warning.
func SetKeyWarnFunc(fn func(format string, args ...any)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnFunc = fn
}

func warnOnKey(key string) {
	if _, seen := warnedKeys.LoadOrStore(key, struct{}{}); seen {
		return
	}

	warnMu.RLock()
	defer warnMu.RUnlock()
	if warnFunc != nil {
		warnFunc("attribute key %q is not identifier-like; ordering and collision behavior is undefined", key)
	}
}

// CheckKeys reports every non-conforming key in attrs through the warn
// hook. Non-conforming keys are not an error.
func CheckKeys(attrs Attrs) {
	for k := range attrs {
		if !keyPattern.MatchString(k) {
			warnOnKey(k)
		}
	}
}

// Normalize returns a copy of the attributes with every value coerced
// into the closed JSON value model. A nil receiver stays nil.
func (a Attrs) Normalize() (Attrs, error) {
	if a == nil {
		return nil, nil
	}

	n, err := Normalize(map[string]any(a))
	if err != nil {
		return nil, err
	}
	return Attrs(n.(map[string]any)), nil
}

// Canonical returns the canonical serialization of the attributes. Nil
// attributes serialize to the JSON null literal.
func (a Attrs) Canonical() ([]byte, error) {
	if a == nil {
		return Canonical(nil)
	}

	n, err := a.Normalize()
	if err != nil {
		return nil, err
	}
	return Canonical(map[string]any(n))
}

// Equal compares attributes under JSON-value equality.
func (a Attrs) Equal(other Attrs) bool {
	if a == nil || other == nil {
		return a == nil && other == nil
	}
	return Equal(map[string]any(a), map[string]any(other))
}
