package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// idSuffixes are name endings that mark an identifier, longest first
var idSuffixes = []string{"uuid", "key", "id"}

// normalizeName folds case and drops every non-alphanumeric rune, so
// "User_ID", "user-id" and "userId" all become "userid"
func normalizeName(name string) string {
	folded := cases.Fold().String(name)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// hasIDSuffix reports whether a normalized name ends in an identifier suffix
func hasIDSuffix(normalized string) bool {
	for _, suffix := range idSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return true
		}
	}
	return false
}

// singular returns a naive English singular of a normalized resource name
func singular(word string) string {
	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"),
		strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "shes"):
		return word[:len(word)-2]
	case len(word) > 1 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

// stem reduces a field name to the key used by fuzzy matching.
//
// Identifier names collapse to "#<owner>": "id" is owned by the field's own
// resource, "userId" by "user". A leading prefix naming the producer's
// resource is dropped from other names, so "userName" on users matches
// "name".
func stem(name, ownResource, producerResource string) string {
	n := normalizeName(name)
	res := singular(normalizeName(producerResource))

	for _, suffix := range []string{"uuid", "id"} {
		if !strings.HasSuffix(n, suffix) {
			continue
		}
		base := strings.TrimSuffix(n, suffix)
		if base == "" {
			return "#" + singular(normalizeName(ownResource))
		}
		return "#" + singular(base)
	}

	if res != "" && len(n) > len(res) {
		plural := normalizeName(producerResource)
		switch {
		case plural != res && len(n) > len(plural) && strings.HasPrefix(n, plural):
			return n[len(plural):]
		case strings.HasPrefix(n, res):
			return n[len(res):]
		}
	}
	return n
}
