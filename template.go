package rtm

import (
	"regexp"
)

// placeholderPattern matches a ${name} token.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// Placeholders returns the distinct placeholder names in text, in order of
// first appearance.
func Placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if name := match[1]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Substitute replaces every placeholder in text with its bound value in a
// single pass; bound values are not scanned again. A placeholder without a
// binding fails with *MissingBindingError.
func Substitute(text string, bindings Bindings) (string, error) {
	values := bindings.Map()

	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-1]
		value, ok := values[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return value
	})
	if missing != "" {
		return "", &MissingBindingError{Placeholder: missing}
	}
	return out, nil
}

// HasPlaceholders reports whether any ${name} token remains in text.
func HasPlaceholders(text string) bool {
	return placeholderPattern.MatchString(text)
}
