// Package doctree stores a JSON document tree as a flat set of leaves keyed by
// slash-separated paths. Writing a value replaces the whole subtree at its
// path; reading a path reassembles the subtree from the leaves under it.
package doctree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const maxKeyBytes = 768

var (
	ErrInvalidPath  = errors.New("doctree: invalid path")
	ErrInvalidValue = errors.New("doctree: invalid value")
)

// Null is the encoding of an absent value.
var Null = json.RawMessage("null")

// IsNull reports whether raw encodes no value.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, Null)
}

// ValidKey reports whether key can be used as a single path segment.
func ValidKey(key string) bool {
	if key == "" || len(key) > maxKeyBytes {
		return false
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return false
		}
		switch r {
		case '.', '$', '#', '[', ']', '/':
			return false
		}
	}
	return true
}

// Clean normalizes path and validates every segment. The root is "".
func Clean(path string) (string, error) {
	segments, err := Split(path)
	if err != nil {
		return "", err
	}
	return strings.Join(segments, "/"), nil
}

func Split(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}
	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if !ValidKey(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// Join builds a path from segments without validating them.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// Covers reports whether path lies at or below prefix.
func Covers(prefix, path string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Ancestors lists the proper ancestors of path, shortest first, excluding root.
func Ancestors(path string) []string {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, strings.Join(segments[:i], "/"))
	}
	return out
}

// Flatten converts value into leaves rooted at path. Null and empty objects
// produce no leaves. Arrays are stored as objects keyed by index.
func Flatten(path string, value json.RawMessage) (map[string]json.RawMessage, error) {
	leaves := make(map[string]json.RawMessage)
	if IsNull(value) {
		return leaves, nil
	}
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidValue)
	}
	if err := flattenInto(leaves, path, decoded); err != nil {
		return nil, err
	}
	return leaves, nil
}

func flattenInto(leaves map[string]json.RawMessage, path string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		for key, child := range v {
			if !ValidKey(key) {
				return fmt.Errorf("%w: key %q", ErrInvalidValue, key)
			}
			if err := flattenInto(leaves, Join(path, key), child); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, child := range v {
			if err := flattenInto(leaves, Join(path, strconv.Itoa(i)), child); err != nil {
				return err
			}
		}
		return nil
	default:
		if path == "" {
			return fmt.Errorf("%w: root must be an object", ErrInvalidValue)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		leaves[path] = raw
		return nil
	}
}

// Build reassembles the subtree at path from leaves. Leaves outside path are
// ignored. The result is Null when nothing lives under path.
func Build(path string, leaves map[string]json.RawMessage) (json.RawMessage, error) {
	if raw, ok := leaves[path]; ok && path != "" {
		return raw, nil
	}

	keys := make([]string, 0, len(leaves))
	for key := range leaves {
		if key != path && Covers(path, key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return Null, nil
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		rel := key
		if path != "" {
			rel = strings.TrimPrefix(key, path+"/")
		}
		segments := strings.Split(rel, "/")
		node := root
		for _, seg := range segments[:len(segments)-1] {
			next, ok := node[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				node[seg] = next
			}
			node = next
		}
		node[segments[len(segments)-1]] = leaves[key]
	}
	return json.Marshal(root)
}
