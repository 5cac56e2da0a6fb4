package umrf

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// PackagePrefix starts every derived package name.
const PackagePrefix = "ta_"

// DerivePackageName turns a free-form action name into a package name:
// lowercase, accents folded, spaces to '_', everything outside [a-z0-9_]
// dropped, runs of '_' collapsed and PackagePrefix ensured at the start.
// The result is stable under repeated application.
func DerivePackageName(raw string) string {
	s := norm.NFKD.String(strings.ToLower(raw))
	s = strings.ReplaceAll(s, " ", "_")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	s = collapseUnderscores(b.String())
	if !strings.HasPrefix(s, PackagePrefix) {
		s = collapseUnderscores(PackagePrefix + s)
	}
	return s
}

// DeriveClassName splits packageName on '_' and concatenates the tokens with
// their first letter uppercased: "ta_pick_and_place" gives "TaPickAndPlace".
func DeriveClassName(packageName string) string {
	var b strings.Builder
	for _, tok := range strings.Split(packageName, "_") {
		if tok == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(tok)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(tok[size:])
	}
	return b.String()
}

// ValidatePackageName checks that name is already in derived form and has
// something after the prefix.
func ValidatePackageName(name string) error {
	if name != DerivePackageName(name) {
		return fmt.Errorf("%w: package name %q is not normalized (want %q)", ErrInvalidName, name, DerivePackageName(name))
	}
	if strings.Trim(strings.TrimPrefix(name, PackagePrefix), "_") == "" {
		return fmt.Errorf("%w: package name %q is empty after the %q prefix", ErrInvalidName, name, PackagePrefix)
	}
	return nil
}

// ValidateGraphName rejects graph names that cannot be used as a file name
// stem: empty names, "." and "..", and names holding a path separator.
func ValidateGraphName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty graph name", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: graph name %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: graph name %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
