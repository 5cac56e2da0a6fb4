package generator

import (
	"maps"

	"github.com/temoto-labs/taassist/internal/umrf"
)

// DefaultTypeAliases maps declared parameter types to C++ types.
var DefaultTypeAliases = map[string]string{
	umrf.TypeString: "std::string",
	umrf.TypeNumber: "double",
	umrf.TypeBool:   "bool",
}

// TypeAliases translates declared parameter types to target types.
type TypeAliases map[string]string

// NewTypeAliases returns the default table with custom entries layered on
// top.
func NewTypeAliases(custom map[string]string) TypeAliases {
	a := make(TypeAliases, len(DefaultTypeAliases)+len(custom))
	maps.Copy(a, DefaultTypeAliases)
	maps.Copy(a, custom)
	return a
}

// Resolve returns the target type for declared. Unmapped types come back
// unchanged with ok false.
func (a TypeAliases) Resolve(declared string) (target string, ok bool) {
	if t, found := a[declared]; found {
		return t, true
	}
	return declared, false
}
