package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Keyer derives deterministic cache keys from a namespace and request parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for params within namespace.
	Key(namespace string, params map[string]any) (string, error)
}

// DefaultKeyer generates readable keys of the form
//
//	namespace:name1:value1|name2:value2
//
// with parameter names sorted lexicographically. Separator characters inside
// names and values are backslash-escaped, so distinct parameter sets never
// share a key. Keys longer than MaxKeyLength collapse to
// namespace:sha256:<32 hex chars>.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
func (k *DefaultKeyer) Key(namespace string, params map[string]any) (string, error) {
	if err := validateNamespace(namespace); err != nil {
		return "", err
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		value, err := formatValue(params[name])
		if err != nil {
			return "", fmt.Errorf("cache: failed to encode param %q: %w", name, err)
		}
		writeEscaped(&b, name)
		b.WriteByte(':')
		writeEscaped(&b, value)
	}

	key := b.String()
	if len(key) > MaxKeyLength {
		hash := sha256.Sum256([]byte(key))
		key = namespace + ":sha256:" + hex.EncodeToString(hash[:16])
	}

	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func validateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return ErrInvalidNamespace
	}
	if strings.ContainsAny(namespace, ":|\\\n\r") {
		return ErrInvalidNamespace
	}
	// Leave room for the hashed form.
	if len(namespace) > MaxKeyLength/2 {
		return ErrInvalidNamespace
	}
	return nil
}

func writeEscaped(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '\\', ':', '|':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
}

// formatValue renders scalars directly and everything else as canonical JSON.
func formatValue(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", nil
		}
		return formatValue(rv.Elem().Interface())
	}

	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return "", nil
		}
		return val.UTC().Format(time.RFC3339Nano), nil
	case time.Duration:
		return val.String(), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	}

	canonical, err := canonicalize(v)
	if err != nil {
		return "", err
	}
	return string(canonical), nil
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// encoding/json already sorts map keys of other map types.
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
