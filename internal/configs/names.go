package configs

import "strings"

// reservedNames are words the declaration surfaces use for their own
// bookkeeping. They can never become attribute names.
var reservedNames = map[string]struct{}{
	"calc": {},
	"list": {},
}

// IsValidName reports whether a string may be used as a configuration
// attribute name. A leading underscore marks private bookkeeping; reserved
// words and the empty string are rejected as well. Value collection skips
// invalid names silently instead of failing.
func IsValidName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "_") {
		return false
	}
	if _, reserved := reservedNames[name]; reserved {
		return false
	}
	return true
}
