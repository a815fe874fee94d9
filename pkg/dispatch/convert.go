package dispatch

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ConverterFunc converts a raw value into target. Returning an error records
// a conversion issue at the current path.
type ConverterFunc func(value any, target reflect.Type) (any, error)

// Converters maps target types to custom converters. They take precedence
// over the built-in conversions.
type Converters map[reflect.Type]ConverterFunc

var (
	trueValues  = map[string]bool{"on": true, "true": true, "1": true, "yes": true}
	falseValues = map[string]bool{"off": true, "false": true, "0": true, "no": true}

	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-1-2 15:04:05",
		"2006-1-2",
	}
)

// converter turns raw request values into typed values, recording an issue
// for every value it cannot convert.
type converter struct {
	custom Converters
	issues []ValidationIssue
}

func newConverter(custom Converters) *converter {
	return &converter{custom: custom}
}

// Convert converts value into target using the built-in rules and custom
// converters. The error is a *ConversionError listing every failure; name is
// the root of the issue paths.
func Convert(value any, target reflect.Type, name string, custom Converters) (any, error) {
	cv := newConverter(custom)
	v, _ := cv.convert(value, target, []string{name})
	if len(cv.issues) > 0 {
		return nil, &ConversionError{Issues: cv.issues}
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

func (cv *converter) fail(path []string, value any, target reflect.Type) {
	cv.issues = append(cv.issues, ValidationIssue{
		Path:     append([]string(nil), path...),
		Messages: []string{fmt.Sprintf("Unable to convert \"%s\" into %s", rawString(value), typeDisplayName(target))},
	})
}

// convert returns an invalid Value (and true) when value is absent, so callers
// leave the destination untouched.
func (cv *converter) convert(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	if value == nil {
		return reflect.Value{}, true
	}

	if fn, ok := cv.custom[target]; ok {
		out, err := fn(value, target)
		if err != nil {
			cv.fail(path, value, target)
			return reflect.Value{}, false
		}
		if out == nil {
			return reflect.Value{}, true
		}
		rv := reflect.ValueOf(out)
		if !rv.Type().AssignableTo(target) {
			cv.fail(path, value, target)
			return reflect.Value{}, false
		}
		return rv, true
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(rv)
		return out, true
	}

	switch {
	case target.Kind() == reflect.Pointer:
		inner, ok := cv.convert(value, target.Elem(), path)
		if !ok || !inner.IsValid() {
			return reflect.Value{}, ok
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(inner)
		return ptr, true
	case target == timeType:
		return cv.convertDate(value, target, path)
	case target == uuidType:
		id, err := uuid.Parse(strings.TrimSpace(rawString(value)))
		if err != nil {
			cv.fail(path, value, target)
			return reflect.Value{}, false
		}
		return reflect.ValueOf(id), true
	}

	switch target.Kind() {
	case reflect.Bool:
		return cv.convertBool(value, target, path)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cv.convertInt(value, target, path)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cv.convertUint(value, target, path)
	case reflect.Float32, reflect.Float64:
		return cv.convertFloat(value, target, path)
	case reflect.String:
		return cv.convertString(value, target, path)
	case reflect.Struct:
		return cv.convertModel(value, target, path)
	case reflect.Slice, reflect.Array:
		return cv.convertArray(value, target, path)
	case reflect.Map:
		return cv.convertMap(value, target, path)
	case reflect.Interface:
		if rv.Type().Implements(target) {
			out := reflect.New(target).Elem()
			out.Set(rv)
			return out, true
		}
	}

	cv.fail(path, value, target)
	return reflect.Value{}, false
}

// scalar reduces single-element string slices (repeated query keys) to a string.
func scalar(value any) any {
	switch v := value.(type) {
	case []string:
		if len(v) == 1 {
			return v[0]
		}
	case []any:
		if len(v) == 1 {
			return v[0]
		}
	}
	return value
}

func (cv *converter) convertBool(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	var result bool
	switch v := scalar(value).(type) {
	case bool:
		result = v
	case string, json.Number:
		s := strings.ToLower(strings.TrimSpace(rawString(v)))
		switch {
		case trueValues[s]:
			result = true
		case falseValues[s]:
			result = false
		default:
			cv.fail(path, value, target)
			return reflect.Value{}, false
		}
	case float64:
		if v != 0 && v != 1 {
			cv.fail(path, value, target)
			return reflect.Value{}, false
		}
		result = v == 1
	default:
		cv.fail(path, value, target)
		return reflect.Value{}, false
	}
	return reflect.ValueOf(result).Convert(target), true
}

func numericString(value any) (string, bool) {
	switch v := scalar(value).(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	}
	return "", false
}

func (cv *converter) convertInt(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	s, ok := numericString(value)
	if ok {
		if n, err := strconv.ParseInt(s, 10, target.Bits()); err == nil {
			return reflect.ValueOf(n).Convert(target), true
		}
	}
	cv.fail(path, value, target)
	return reflect.Value{}, false
}

func (cv *converter) convertUint(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	s, ok := numericString(value)
	if ok {
		if n, err := strconv.ParseUint(s, 10, target.Bits()); err == nil {
			return reflect.ValueOf(n).Convert(target), true
		}
	}
	cv.fail(path, value, target)
	return reflect.Value{}, false
}

func (cv *converter) convertFloat(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	s, ok := numericString(value)
	if ok {
		if f, err := strconv.ParseFloat(s, target.Bits()); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return reflect.ValueOf(f).Convert(target), true
		}
	}
	cv.fail(path, value, target)
	return reflect.Value{}, false
}

func (cv *converter) convertString(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	var s string
	switch v := scalar(value).(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		s = v.String()
	default:
		cv.fail(path, value, target)
		return reflect.Value{}, false
	}
	return reflect.ValueOf(s).Convert(target), true
}

func (cv *converter) convertDate(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	switch v := scalar(value).(type) {
	case time.Time:
		return reflect.ValueOf(v), true
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			return reflect.ValueOf(time.UnixMilli(ms).UTC()), true
		}
	case float64:
		return reflect.ValueOf(time.UnixMilli(int64(v)).UTC()), true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return reflect.ValueOf(t), true
			}
		}
	}
	cv.fail(path, value, target)
	return reflect.Value{}, false
}

// convertModel fills the declared fields of a struct from a map, matching
// names exactly and then case-insensitively. Absent fields stay unset and
// undeclared input keys are dropped.
func (cv *converter) convertModel(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	input, ok := asObject(scalar(value))
	if !ok {
		cv.fail(path, value, target)
		return reflect.Value{}, false
	}

	out := reflect.New(target).Elem()
	valid := true
	for _, f := range modelFields(target) {
		raw, found := lookupField(input, f)
		if !found {
			continue
		}
		fv, ok := cv.convert(raw, f.Type, append(path, f.Name))
		if !ok {
			valid = false
			continue
		}
		if fv.IsValid() {
			out.FieldByIndex(f.Index).Set(fv)
		}
	}
	return out, valid
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case url.Values:
		return flattenValues(v), true
	case http.Header:
		return flattenValues(url.Values(v)), true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func lookupField(input map[string]any, f modelField) (any, bool) {
	if v, ok := input[f.Name]; ok {
		return v, true
	}
	for k, v := range input {
		if strings.EqualFold(k, f.Name) || strings.EqualFold(k, f.GoName) {
			return v, true
		}
	}
	return nil, false
}

// convertArray converts each element; a single value becomes a one-element
// slice. Element indexes are part of issue paths.
func (cv *converter) convertArray(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	case string:
		if target.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(v)).Convert(target), true
		}
		items = []any{v}
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			items = make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
		} else {
			items = []any{value}
		}
	}

	var out reflect.Value
	if target.Kind() == reflect.Array {
		if len(items) > target.Len() {
			cv.fail(path, value, target)
			return reflect.Value{}, false
		}
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(target, len(items), len(items))
	}

	valid := true
	for i, item := range items {
		ev, ok := cv.convert(item, target.Elem(), append(path, strconv.Itoa(i)))
		if !ok {
			valid = false
			continue
		}
		if ev.IsValid() {
			out.Index(i).Set(ev)
		}
	}
	return out, valid
}

func (cv *converter) convertMap(value any, target reflect.Type, path []string) (reflect.Value, bool) {
	input, ok := asObject(value)
	if !ok || target.Key().Kind() != reflect.String {
		cv.fail(path, value, target)
		return reflect.Value{}, false
	}

	out := reflect.MakeMapWithSize(target, len(input))
	valid := true
	for k, raw := range input {
		ev, ok := cv.convert(raw, target.Elem(), append(path, k))
		if !ok {
			valid = false
			continue
		}
		if !ev.IsValid() {
			ev = reflect.Zero(target.Elem())
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), ev)
	}
	return out, valid
}

// rawString renders a raw input value for conversion messages.
func rawString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case []string:
		return strings.Join(v, ",")
	case map[string]any, []any:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(value)
}

// typeDisplayName names a target type in conversion messages.
func typeDisplayName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t == timeType:
		return "Date"
	case t == uuidType:
		return "UUID"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "Boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "Number"
	case reflect.String:
		return "String"
	case reflect.Slice, reflect.Array:
		return "Array"
	case reflect.Map:
		return "Object"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
