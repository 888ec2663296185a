package parser

import (
	"fmt"
	"sort"
)

// asMap accepts both decoded map shapes
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out, ok := normalizeValue(m).(map[string]any)
		return out, ok
	}
	return nil, false
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func asStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeValue converts YAML mappings with non-string keys (e.g. unquoted
// status codes) into map[string]any, recursively
func normalizeValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			node[k] = normalizeValue(child)
		}
		return node
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[asString(k)] = normalizeValue(child)
		}
		return out
	case []any:
		for i, child := range node {
			node[i] = normalizeValue(child)
		}
		return node
	}
	return v
}
