package parser

import (
	"strconv"
	"strings"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// maxRefHops bounds how many chained references ($ref to a $ref) are
// followed before a reference is considered unresolvable.
const maxRefHops = 32

// follow resolves an internal reference, following chained references.
// The returned chain lists every reference visited, the returned target never
// holds another internal $ref.
func (st *state) follow(ref, location string) (map[string]any, []string, error) {
	var chain []string
	current := ref
	for hop := 0; hop < maxRefHops; hop++ {
		chain = append(chain, current)

		target, ok := lookupPointer(st.doc, current)
		if !ok {
			return nil, nil, malformed(location, "dangling $ref %q", current)
		}

		next, isRef := target["$ref"].(string)
		if !isRef || !isInternalRef(next) {
			return target, chain, nil
		}
		current = next
	}
	return nil, nil, malformed(location, "could not resolve $ref %q after %d attempts", ref, maxRefHops)
}

// deref resolves node when it is a reference object, otherwise returns it
func (st *state) deref(node map[string]any, location string) (map[string]any, error) {
	ref, ok := node["$ref"].(string)
	if !ok {
		return node, nil
	}
	if !isInternalRef(ref) {
		st.warn(models.WarningExternalRef, "", location, "external reference "+ref+" is not followed")
		return map[string]any{}, nil
	}
	target, _, err := st.follow(ref, location)
	return target, err
}

func isInternalRef(ref string) bool {
	return strings.HasPrefix(ref, "#")
}

// refName returns the last segment of a reference, e.g. "User" for
// "#/components/schemas/User"
func refName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return unescapePointer(ref[i+1:])
	}
	return ref
}

// lookupPointer walks a JSON pointer ("#/a/b/0") through the document
func lookupPointer(doc map[string]any, ref string) (map[string]any, bool) {
	pointer := strings.TrimPrefix(ref, "#")
	if pointer == "" {
		return doc, true
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}

	var current any = doc
	for _, token := range strings.Split(pointer[1:], "/") {
		token = unescapePointer(token)
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[token]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}

	target, ok := current.(map[string]any)
	return target, ok
}

func unescapePointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
