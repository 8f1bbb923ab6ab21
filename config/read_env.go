package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"
)

const TagName = "env"

var lookupEnv = os.LookupEnv

var durationType = reflect.TypeOf(time.Duration(0))

// Parse fills conf's fields from environment variables declared with
// `env` struct tags. A `default` tag supplies the value when the
// variable is unset; `required:"true"` makes an unset or empty variable
// an error. Supported kinds: string, bool, int/uint families,
// time.Duration and pointers to them. Untagged struct (or *struct)
// fields are walked recursively.
func Parse[T any](conf *T) error {
	if conf == nil {
		return fmt.Errorf("conf is nil")
	}

	cVal := reflect.ValueOf(conf).Elem()
	if cVal.Kind() != reflect.Struct {
		return fmt.Errorf("conf type %v is not struct", cVal.Type())
	}

	return parseStruct(cVal)
}

func parseStruct(cVal reflect.Value) error {
	cType := cVal.Type()

	for i := 0; i < cType.NumField(); i++ {
		field := cType.Field(i)
		fieldVal := cVal.Field(i)
		if !field.IsExported() || !fieldVal.CanSet() {
			continue
		}

		varName, ok := field.Tag.Lookup(TagName)
		if !ok {
			// walk nested config structs
			switch {
			case fieldVal.Kind() == reflect.Struct:
				if err := parseStruct(fieldVal); err != nil {
					return err
				}
			case fieldVal.Kind() == reflect.Pointer && field.Type.Elem().Kind() == reflect.Struct:
				if fieldVal.IsNil() {
					fieldVal.Set(reflect.New(field.Type.Elem()))
				}
				if err := parseStruct(fieldVal.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		required := field.Tag.Get("required") == "true"

		envVariable, ok := lookupEnv(varName)
		if !ok || envVariable == "" {
			if required {
				return fmt.Errorf("environment variable %s is required", varName)
			}
			envVariable, ok = field.Tag.Lookup("default")
			if !ok || envVariable == "" {
				continue
			}
		}

		if err := setValue(fieldVal, envVariable); err != nil {
			return fmt.Errorf("can't parse env %s: %w", varName, err)
		}
	}

	return nil
}

func setValue(fVal reflect.Value, input string) error {
	if fVal.Kind() == reflect.Pointer {
		p := reflect.New(fVal.Type().Elem())
		fVal.Set(p)
		return setValue(p.Elem(), input)
	}

	if fVal.Type() == durationType {
		d, err := time.ParseDuration(input)
		if err != nil {
			return err
		}
		fVal.SetInt(int64(d))
		return nil
	}

	switch fVal.Kind() {
	case reflect.String:
		fVal.SetString(input)

	case reflect.Bool:
		b, err := strconv.ParseBool(input)
		if err != nil {
			return err
		}
		fVal.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(fVal, input, fVal.Type().Bits())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUInt(fVal, input, fVal.Type().Bits())
	}

	return nil
}

func setInt(fVal reflect.Value, input string, bitSize int) error {
	n, err := strconv.ParseInt(input, 10, bitSize)
	if err != nil {
		return err
	}

	fVal.SetInt(n)
	return nil
}

func setUInt(fVal reflect.Value, input string, bitSize int) error {
	n, err := strconv.ParseUint(input, 10, bitSize)
	if err != nil {
		return err
	}

	fVal.SetUint(n)
	return nil
}
