package scheme

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"

	"github.com/mwantia/grove/data"
)

// HashName is the name of the default content-hash scheme.
const HashName = "hash-md5"

var hexPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// HashScheme derives the identifier as the md5 digest of the canonical
// attribute serialization, rendered as 32 lowercase hex digits. Key
// order and integer/float representation never change the result, so
// semantically equal documents always land in the same directory.
type HashScheme struct{}

func init() {
	Register(HashScheme{})
}

func (HashScheme) Name() string {
	return HashName
}

func (HashScheme) Compute(attrs data.Attrs) (string, error) {
	raw, err := attrs.Canonical()
	if err != nil {
		return "", err
	}

	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Validate checks the fixed 32-hex shape. Cheaper than loading and
// hashing attributes, which makes it the fast path of Workspace.Check.
func (HashScheme) Validate(id string) bool {
	return hexPattern.MatchString(id)
}
