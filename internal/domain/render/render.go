// Package render substitutes {{path.to.value}} placeholders in authored
// copy. Only path lookup is supported: no expressions, no function calls.
// Anything that does not resolve renders as the empty string.
package render

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	placeholder = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)
	segment     = regexp.MustCompile(`^([A-Za-z0-9_]+)((?:\[\d+\])*)$`)
	indexes     = regexp.MustCompile(`\[(\d+)\]`)
)

// Render replaces every placeholder in tpl with its value in ctx.
func Render(tpl string, ctx any) string {
	return placeholder.ReplaceAllStringFunc(tpl, func(m string) string {
		path := placeholder.FindStringSubmatch(m)[1]
		return Lookup(ctx, path)
	})
}

// Each renders every template in order.
func Each(tpls []string, ctx any) []string {
	if len(tpls) == 0 {
		return nil
	}
	out := make([]string, len(tpls))
	for i, t := range tpls {
		out[i] = Render(t, ctx)
	}
	return out
}

// Lookup resolves a dotted path in ctx and formats the value.
func Lookup(ctx any, path string) string {
	cur := reflect.ValueOf(ctx)
	for _, part := range strings.Split(strings.TrimSpace(path), ".") {
		if part == "" {
			continue
		}
		m := segment.FindStringSubmatch(part)
		if m == nil {
			return ""
		}
		var ok bool
		if cur, ok = field(cur, m[1]); !ok {
			return ""
		}
		for _, idx := range indexes.FindAllStringSubmatch(m[2], -1) {
			n, err := strconv.Atoi(idx[1])
			if err != nil {
				return ""
			}
			if cur, ok = element(cur, n); !ok {
				return ""
			}
		}
	}
	return format(cur)
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func field(v reflect.Value, name string) (reflect.Value, bool) {
	v, ok := deref(v)
	if !ok {
		return reflect.Value{}, false
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		out := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		return out, out.IsValid()
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.IsExported() && fieldName(f) == name {
				return v.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"yaml", "json"} {
		if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func element(v reflect.Value, n int) (reflect.Value, bool) {
	v, ok := deref(v)
	if !ok {
		return reflect.Value{}, false
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if n < v.Len() {
			return v.Index(n), true
		}
	}
	return reflect.Value{}, false
}

func format(v reflect.Value) string {
	v, ok := deref(v)
	if !ok {
		return ""
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = format(v.Index(i))
		}
		return strings.Join(parts, ",")
	case reflect.Map, reflect.Struct, reflect.Func, reflect.Chan:
		return ""
	default:
		return fmt.Sprint(v.Interface())
	}
}
