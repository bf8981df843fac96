package store

import (
	"sort"
	"strings"

	"github.com/vedsharma/adminkit/internal/entity"
)

// getPath reads a dotted path from item.
func getPath(item entity.Item, path string) (any, bool) {
	var cur any = map[string]any(item)
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath writes value at a dotted path, creating intermediate objects and
// replacing non-object values in the way.
func setPath(item entity.Item, path string, value any) {
	segs := strings.Split(path, ".")
	m := map[string]any(item)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(m[seg])
		if !ok {
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case entity.Item:
		return map[string]any(t), true
	}
	return nil, false
}

// inlineRelated replaces related ids at each path with copies of the
// related objects. Shallow paths go first so deeper ones can walk through
// the objects just inlined.
func inlineRelated(item entity.Item, paths []string, related entity.RelatedItems) {
	sorted := append([]string(nil), paths...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.Count(sorted[i], ".") < strings.Count(sorted[j], ".")
	})
	for _, path := range sorted {
		byID := related[path]
		if len(byID) == 0 {
			continue
		}
		inlineAt(map[string]any(item), strings.Split(path, "."), byID)
	}
}

func inlineAt(container any, segs []string, byID map[string]entity.Item) {
	if list, ok := container.([]any); ok {
		for _, el := range list {
			inlineAt(el, segs, byID)
		}
		return
	}
	m, ok := asMap(container)
	if !ok {
		return
	}
	key := segs[0]
	if len(segs) > 1 {
		inlineAt(m[key], segs[1:], byID)
		return
	}

	switch v := m[key].(type) {
	case string:
		if rel, ok := byID[v]; ok {
			m[key] = deepCopy(rel)
		}
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = el
			if id, ok := el.(string); ok {
				if rel, ok := byID[id]; ok {
					out[i] = deepCopy(rel)
				}
			}
		}
		m[key] = out
	}
}

// deepCopy copies maps and slices recursively; other values are shared.
func deepCopy(v any) any {
	switch t := v.(type) {
	case entity.Item:
		return copyItem(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}

func copyItem(item entity.Item) entity.Item {
	if item == nil {
		return nil
	}
	out := make(entity.Item, len(item))
	for k, v := range item {
		out[k] = deepCopy(v)
	}
	return out
}
