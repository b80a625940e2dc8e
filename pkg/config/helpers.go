package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// SetValue sets a configuration value by its dotted key, e.g.
// "settings.log_level", "julia.command" or "hooks.pre-resolve".
// The result is not validated; call Validate afterwards.
func (c *Config) SetValue(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		field.SetBool(boolVal)
	case reflect.String:
		field.SetString(value)
	default:
		return fmt.Errorf("unsupported configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of a dotted key as a string.
func (c *Config) GetValue(key string) (string, error) {
	field, err := c.lookup(key)
	if err != nil {
		return "", err
	}
	return formatValue(field), nil
}

// Keys returns every supported dotted key in lexical order.
func (c *Config) Keys() []string {
	keys := make([]string, 0)
	for key := range c.ToMap() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ToMap flattens the configuration into dotted keys.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	root := reflect.ValueOf(c).Elem()
	rootType := root.Type()

	for i := 0; i < root.NumField(); i++ {
		section := yamlKey(rootType.Field(i))
		if section == "" {
			continue
		}
		value := root.Field(i)
		valueType := value.Type()
		for j := 0; j < value.NumField(); j++ {
			name := yamlKey(valueType.Field(j))
			if name == "" {
				continue
			}
			result[section+"."+name] = formatValue(value.Field(j))
		}
	}

	return result
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	section, name, ok := strings.Cut(key, ".")
	if !ok {
		return reflect.Value{}, fmt.Errorf("unknown configuration key: %s", key)
	}
	root := reflect.ValueOf(c).Elem()
	for i := 0; i < root.NumField(); i++ {
		if yamlKey(root.Type().Field(i)) != section {
			continue
		}
		value := root.Field(i)
		for j := 0; j < value.NumField(); j++ {
			if yamlKey(value.Type().Field(j)) == name {
				return value.Field(j), nil
			}
		}
	}
	return reflect.Value{}, fmt.Errorf("unknown configuration key: %s", key)
}

// yamlKey handles yaml tags with options (e.g., "archive,omitempty").
func yamlKey(field reflect.StructField) string {
	tag := field.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
