package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	placeholderPattern  = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)
	variableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)
)

// Generic converts v to the map/slice/scalar shape produced by decoding JSON, so
// structs can be used as lookup sources.
func Generic(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup follows a dotted path through decoded JSON. Object members are addressed by key,
// array elements by decimal index ("lines.0.amount").
func Lookup(source any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	current := source
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Resolve replaces {{variable}} placeholders in every string of input. A variable resolves through
// mappings to a field path, or is used as the path itself when unmapped. A string consisting of a single
// placeholder takes the raw looked-up value; embedded placeholders are interpolated as text.
// Placeholders that cannot be resolved are left in place and returned, without duplicates.
func Resolve(input any, mappings map[string]string, source any) (any, []string) {
	r := resolver{mappings: mappings, source: source, seen: map[string]bool{}}
	out := r.walk(input)
	if r.unresolved == nil {
		r.unresolved = []string{}
	}
	return out, r.unresolved
}

type resolver struct {
	mappings   map[string]string
	source     any
	seen       map[string]bool
	unresolved []string
}

func (r *resolver) walk(node any) any {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(v))
		for _, k := range keys {
			out[k] = r.walk(v[k])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = r.walk(v[i])
		}
		return out
	case string:
		return r.resolveString(v)
	default:
		return v
	}
}

func (r *resolver) resolveString(s string) any {
	if loc := placeholderPattern.FindStringSubmatchIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
		name := s[loc[2]:loc[3]]
		if value, ok := r.lookup(name); ok {
			return value
		}
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := r.lookup(name)
		if !ok {
			return match
		}
		return text(value)
	})
}

func (r *resolver) lookup(name string) (any, bool) {
	path := name
	if mapped, ok := r.mappings[name]; ok && strings.TrimSpace(mapped) != "" {
		path = mapped
	}
	value, ok := Lookup(r.source, path)
	if !ok {
		if !r.seen[name] {
			r.seen[name] = true
			r.unresolved = append(r.unresolved, name)
		}
		return nil, false
	}
	return value, true
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
