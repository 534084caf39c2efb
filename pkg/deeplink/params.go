package deeplink

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/vango-dev/navstate/pkg/navtree"
)

// ParamParser decodes string parameters into struct fields tagged `param`.
type ParamParser struct{}

// Parse populates target, a pointer to a struct, from params. Fields without
// a tag or without a value are left alone.
func (p ParamParser) Parse(params map[string]string, target any) error {
	if target == nil {
		return nil
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return fmt.Errorf("deeplink: target must be a pointer, got %s", v.Kind())
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("deeplink: target must be a pointer to struct, got pointer to %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("param")
		if name == "" {
			continue
		}
		value, ok := params[name]
		if !ok {
			continue
		}
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("deeplink: param %q: %w", name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type: %s", field.Kind())
	}
	return nil
}

// Struct returns a factory that decodes params into a T with ParamParser.
func Struct[T navtree.Destination]() Factory {
	return func(params map[string]string) (navtree.Destination, error) {
		var dest T
		if err := (ParamParser{}).Parse(params, &dest); err != nil {
			return nil, err
		}
		return dest, nil
	}
}

// Params extracts the URI parameters of dest: from a URIParams method when
// present, otherwise from struct fields tagged `param`.
func Params(dest navtree.Destination) map[string]string {
	if dest == nil {
		return nil
	}
	if p, ok := dest.(interface{ URIParams() map[string]string }); ok {
		return p.URIParams()
	}

	v := reflect.ValueOf(dest)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	params := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("param")
		if name == "" || !t.Field(i).IsExported() {
			continue
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			params[name] = f.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			params[name] = strconv.FormatInt(f.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			params[name] = strconv.FormatUint(f.Uint(), 10)
		case reflect.Float32, reflect.Float64:
			params[name] = strconv.FormatFloat(f.Float(), 'g', -1, f.Type().Bits())
		case reflect.Bool:
			params[name] = strconv.FormatBool(f.Bool())
		}
	}
	return params
}
