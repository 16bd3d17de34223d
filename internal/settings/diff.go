package settings

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Change records the before/after values of one differing leaf. A side that
// is absent is reported as nil.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff structurally compares two bundles and returns the differing leaves
// keyed by dotted path. Objects are walked recursively; arrays are compared
// as whole values, never element-wise. Diff never fails: bundles are always
// marshalable and equal inputs always produce an empty map.
func Diff(old, new *Bundle) map[string]Change {
	oldJSON, errOld := json.Marshal(old)
	newJSON, errNew := json.Marshal(new)
	if errOld != nil || errNew != nil {
		return map[string]Change{}
	}

	out := map[string]Change{}
	diffValues("", gjson.ParseBytes(oldJSON), gjson.ParseBytes(newJSON), out)
	return out
}

// DiffValues compares two arbitrary JSON documents the same way Diff
// compares bundles. Used for audit summaries over raw artifacts.
func DiffValues(oldJSON, newJSON []byte) map[string]Change {
	out := map[string]Change{}
	diffValues("", gjson.ParseBytes(oldJSON), gjson.ParseBytes(newJSON), out)
	return out
}

func diffValues(path string, old, new gjson.Result, out map[string]Change) {
	if old.IsObject() && new.IsObject() {
		for key := range unionKeys(old, new) {
			diffValues(joinPath(path, key), old.Get(rawKey(key)), new.Get(rawKey(key)), out)
		}
		return
	}

	// Arrays and scalars compare as whole values. A key missing on one side
	// is a difference with the absent side reported as nil.
	if old.Exists() != new.Exists() || old.Raw != new.Raw {
		out[path] = Change{Old: old.Value(), New: new.Value()}
	}
}

func unionKeys(a, b gjson.Result) map[string]struct{} {
	keys := map[string]struct{}{}
	collect := func(value gjson.Result) {
		value.ForEach(func(key, _ gjson.Result) bool {
			keys[key.String()] = struct{}{}
			return true
		})
	}
	collect(a)
	collect(b)
	return keys
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// rawKey escapes gjson path metacharacters in an object key.
func rawKey(key string) string {
	escaped := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\', '|', '#', '@':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, key[i])
	}
	return string(escaped)
}
