// Package util provides the struct reflection helpers wee uses to move
// attributes between records and plain Go structs.
package util

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// parseDBTag returns the column named by a db tag and whether the tag
// carries the omitempty flag.
func parseDBTag(tag string) (column string, omitEmpty bool) {
	parts := strings.Split(tag, ",")
	column = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			omitEmpty = true
		}
	}
	return column, omitEmpty
}

// SnakeCase converts a Go identifier to snake_case: UserID becomes user_id,
// BlogPost becomes blog_post.
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type fieldInfo struct {
	index     []int
	column    string
	omitEmpty bool
}

// fields lists the mapped fields of t, descending into anonymous embedded
// structs. Untagged fields map to the snake_case of their name.
func fields(t reflect.Type) []fieldInfo {
	var out []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, hasTag := f.Tag.Lookup("db")
		if f.Anonymous && !hasTag {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for _, sub := range fields(ft) {
					sub.index = append([]int{i}, sub.index...)
					out = append(out, sub)
				}
				continue
			}
		}
		column, omitEmpty := SnakeCase(f.Name), false
		if hasTag {
			column, omitEmpty = parseDBTag(tag)
			if column == "-" {
				continue
			}
			if column == "" {
				column = SnakeCase(f.Name)
			}
		}
		out = append(out, fieldInfo{index: []int{i}, column: column, omitEmpty: omitEmpty})
	}
	return out
}

func structValue(data any, op string) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, errors.New(op + ": nil pointer")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s: expected struct, got %s", op, v.Kind())
	}
	return v, nil
}

// StructToMap converts a struct to a column map using db tags.
//
// Rules:
//   - Unexported fields are skipped.
//   - db:"-" fields are skipped.
//   - db:"col,omitempty" fields are skipped when zero.
//   - Fields without a db tag use the snake_case field name.
//   - Embedded structs without a tag are flattened.
func StructToMap(data any) (map[string]any, error) {
	v, err := structValue(data, "StructToMap")
	if err != nil {
		return nil, err
	}

	result := make(map[string]any)
	for _, f := range fields(v.Type()) {
		fv, ok := fieldByIndex(v, f.index, false)
		if !ok {
			continue
		}
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		result[f.column] = fv.Interface()
	}
	return result, nil
}

// MapToStruct copies values from m into the fields of the struct pointed to
// by dest, matching columns the same way StructToMap does. Keys without a
// matching field are ignored. Values are assigned directly when assignable,
// converted when convertible, or passed to the field's sql.Scanner.
func MapToStruct(m map[string]any, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("MapToStruct: dest must be a non-nil pointer to struct")
	}
	v := rv.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("MapToStruct: expected struct, got %s", v.Kind())
	}

	for _, f := range fields(v.Type()) {
		val, ok := m[f.column]
		if !ok {
			continue
		}
		fv, _ := fieldByIndex(v, f.index, true)
		if err := assign(fv, val); err != nil {
			return fmt.Errorf("MapToStruct: column %q: %w", f.column, err)
		}
	}
	return nil
}

// fieldByIndex walks index, allocating nil embedded pointers when alloc is set.
func fieldByIndex(v reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !alloc {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func assign(field reflect.Value, val any) error {
	if scanner, ok := field.Addr().Interface().(sql.Scanner); ok {
		return scanner.Scan(val)
	}
	if val == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	src := reflect.ValueOf(val)
	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), val); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}
	if b, ok := val.([]byte); ok && field.Kind() == reflect.String {
		field.SetString(string(b))
		return nil
	}
	if src.Type().AssignableTo(field.Type()) {
		field.Set(src)
		return nil
	}
	// Drivers without a boolean type report integers.
	if field.Kind() == reflect.Bool && src.CanInt() {
		field.SetBool(src.Int() != 0)
		return nil
	}
	if isNumeric(src.Kind()) && isNumeric(field.Kind()) || src.Kind() == field.Kind() {
		if src.Type().ConvertibleTo(field.Type()) {
			field.Set(src.Convert(field.Type()))
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", val, field.Type())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
