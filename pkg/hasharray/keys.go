package hasharray

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/bastiangx/trieserve/pkg/errors"
)

// Fielder is implemented by items that resolve their own fields.
// Lookup prefers it over reflection.
type Fielder interface {
	Field(name string) (any, bool)
}

// KeyField describes where a key value lives inside an item:
// either a single field name or an ordered path of nested fields.
type KeyField struct {
	segments []string
}

// Field returns a single-segment key descriptor.
func Field(name string) KeyField {
	return KeyField{segments: []string{name}}
}

// Path returns a nested key descriptor, resolved left to right.
func Path(segments ...string) KeyField {
	return KeyField{segments: append([]string(nil), segments...)}
}

// ParseKeyField converts a loosely typed descriptor (as decoded from TOML, YAML or msgpack)
// into a KeyField. Strings become single fields and string lists become paths.
func ParseKeyField(v any) (KeyField, error) {
	var kf KeyField
	switch d := v.(type) {
	case KeyField:
		kf = d
	case string:
		kf = Field(d)
	case []string:
		kf = Path(d...)
	case []any:
		segs := make([]string, 0, len(d))
		for _, s := range d {
			str, ok := s.(string)
			if !ok {
				return KeyField{}, apperrors.Newf(apperrors.ErrInvalidArgument,
					"key path segment %v (%T) is not a string", s, s)
			}
			segs = append(segs, str)
		}
		kf = Path(segs...)
	default:
		return KeyField{}, apperrors.Newf(apperrors.ErrInvalidArgument,
			"key descriptor must be a string or a list of strings, got %T", v)
	}
	if !kf.Valid() {
		return KeyField{}, apperrors.Newf(apperrors.ErrInvalidArgument, "empty key descriptor %v", v)
	}
	return kf, nil
}

// ParseKeyFields applies ParseKeyField to every descriptor.
func ParseKeyFields(vs ...any) ([]KeyField, error) {
	out := make([]KeyField, 0, len(vs))
	for _, v := range vs {
		kf, err := ParseKeyField(v)
		if err != nil {
			return nil, err
		}
		out = append(out, kf)
	}
	return out, nil
}

// Valid reports whether the descriptor has at least one non-empty segment list.
func (k KeyField) Valid() bool {
	if len(k.segments) == 0 {
		return false
	}
	for _, s := range k.segments {
		if s == "" {
			return false
		}
	}
	return true
}

// Segments returns a copy of the path segments.
func (k KeyField) Segments() []string {
	return append([]string(nil), k.segments...)
}

func (k KeyField) String() string {
	return strings.Join(k.segments, ".")
}

// IsObject reports whether Lookup can descend into item.
func IsObject(item any) bool {
	if _, ok := item.(Fielder); ok {
		return true
	}
	rv := reflect.ValueOf(item)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return false
	}
	switch rv.Kind() {
	case reflect.Struct:
		return true
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	}
	return false
}

// Lookup resolves kf against item by iterative descent.
// A missing segment yields (nil, false, nil); a non-object item is an ErrInvalidArgument.
func Lookup(item any, kf KeyField) (any, bool, error) {
	if !IsObject(item) {
		return nil, false, apperrors.Newf(apperrors.ErrInvalidArgument, "item of type %T is not an object", item)
	}
	cur := item
	for _, seg := range kf.segments {
		next, ok := fieldOf(cur, seg)
		if !ok {
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}

func fieldOf(v any, name string) (any, bool) {
	switch o := v.(type) {
	case nil:
		return nil, false
	case Fielder:
		return o.Field(name)
	case map[string]any:
		x, ok := o[name]
		return x, ok
	case map[string]string:
		x, ok := o[name]
		return x, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(kt))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(rv, name)
	}
	return nil, false
}

// structField matches an exported field by name or by its json tag.
func structField(rv reflect.Value, name string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if f.Name == name || tag == name {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// KeyString stringifies a resolved key value. Nil and zero values are absent.
func KeyString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case fmt.Stringer:
		s := x.String()
		return s, s != ""
	}
	rv := reflect.ValueOf(v)
	if rv.IsZero() {
		return "", false
	}
	return fmt.Sprint(v), true
}
