// Package envstruct fills configuration structs from environment variables.
package envstruct

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	ErrEnvNotSet    = errors.New("environment variable not set")
	ErrInvalidValue = errors.New("invalid value")
)

var durationType = reflect.TypeFor[time.Duration]()

// Populate sets the fields of the struct pointed to by v from the environment.
//
// lookupEnv has the signature of [os.LookupEnv]. Fields are tagged with `env:"NAME"` and optionally
// `envDefault:"value"`. A tagged field without a value or default yields ErrEnvNotSet. Supported field types
// are string, bool, int and [time.Duration]. All problems are collected and returned joined.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptrRef := reflect.ValueOf(v)
	if ptrRef.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: not pointer: %v", ErrInvalidValue, v)
	}
	ref := ptrRef.Elem()
	if ref.Kind() != reflect.Struct {
		return fmt.Errorf("%w: not struct: %v", ErrInvalidValue, v)
	}

	var errs []error
	refType := ref.Type()
	for i := range refType.NumField() {
		field := refType.Field(i)
		name, ok := field.Tag.Lookup("env")
		if !ok {
			continue
		}
		target := ref.Field(i)
		if !target.CanSet() {
			errs = append(errs, fmt.Errorf("%w: cannot set field: %s", ErrInvalidValue, field.Name))
			continue
		}
		raw, err := lookup(name, field.Tag, lookupEnv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err = set(target, raw); err != nil {
			errs = append(errs, fmt.Errorf("%w: field %s from %s: %w", ErrInvalidValue, field.Name, name, err))
		}
	}
	return errors.Join(errs...)
}

func lookup(name string, tag reflect.StructTag, lookupEnv func(string) (string, bool)) (string, error) {
	if val, ok := lookupEnv(name); ok {
		return val, nil
	}
	if val, ok := tag.Lookup("envDefault"); ok {
		return val, nil
	}
	return "", fmt.Errorf("%w: %s", ErrEnvNotSet, name)
}

func set(target reflect.Value, raw string) error {
	if target.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration: %w", err)
		}
		target.SetInt(int64(d))
		return nil
	}
	switch target.Kind() { //nolint:exhaustive // everything else is unsupported
	case reflect.String:
		target.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}
		target.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}
		target.SetInt(int64(n))
	default:
		return fmt.Errorf("unsupported type %s", target.Type())
	}
	return nil
}
