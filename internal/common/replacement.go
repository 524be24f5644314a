// Package common provides utility functions for key/value reference replacement.
//
// The {key-name} syntax allows configuration values to reference keys stored
// in the key/value store. At runtime, these references are replaced with actual
// values from the store.
//
// Example:
//   Input:  "token = {github-token}"
//   KV Map: {"github-token": "ghp_12345"}
//   Output: "token = ghp_12345"
//
// Replacement is case-sensitive. Missing keys are logged as warnings but not
// treated as errors, allowing graceful degradation.
package common

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/ternarybob/arbor"
)

// keyRefPattern matches {key-name} references in strings
// Allows alphanumeric characters, hyphens, and underscores
var keyRefPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// ReplaceKeyReferences replaces all {key-name} references in the input string
// with values from the provided KV map. If a key is not found, the reference
// is left unchanged and a warning is logged.
func ReplaceKeyReferences(input string, kvMap map[string]string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	// Log warnings for unresolved keys before replacement
	logUnresolvedKeys(input, kvMap, logger)

	result := keyRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		// Extract key name (remove braces)
		keyName := match[1 : len(match)-1]

		if value, exists := kvMap[keyName]; exists {
			return value
		}

		// Key not found - return unchanged
		return match
	})

	return result
}

// logUnresolvedKeys finds all {key-name} references and logs warnings for missing keys
func logUnresolvedKeys(input string, kvMap map[string]string, logger arbor.ILogger) {
	matches := keyRefPattern.FindAllStringSubmatch(input, -1)
	for _, match := range matches {
		if len(match) > 1 {
			keyName := match[1]
			if _, exists := kvMap[keyName]; !exists {
				logger.Warn().
					Str("reference", match[0]).
					Str("key", keyName).
					Msg("Unresolved key reference - key not found in KV store")
			}
		}
	}
}

// ReplaceInStruct uses reflection to recursively replace {key-name} references
// in a struct's string fields. It handles nested structs, maps, slices, and
// pointer fields. The struct must be passed as a pointer for in-place mutation.
func ReplaceInStruct(v interface{}, kvMap map[string]string, logger arbor.ILogger) error {
	val := reflect.ValueOf(v)

	// Must be a pointer
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("ReplaceInStruct requires a pointer, got %T", v)
	}

	val = val.Elem()

	// Must be a struct
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("ReplaceInStruct requires a struct pointer, got pointer to %v", val.Kind())
	}

	return replaceInStructValue(val, kvMap, logger)
}

// replaceInStructValue is the recursive implementation for struct traversal
func replaceInStructValue(val reflect.Value, kvMap map[string]string, logger arbor.ILogger) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			oldValue := field.String()
			newValue := ReplaceKeyReferences(oldValue, kvMap, logger)
			if oldValue != newValue {
				field.SetString(newValue)
				logger.Debug().
					Str("field", fieldType.Name).
					Msg("Replaced key reference in struct field")
			}

		case reflect.Struct:
			if err := replaceInStructValue(field, kvMap, logger); err != nil {
				return fmt.Errorf("failed to replace in nested struct field '%s': %w", fieldType.Name, err)
			}

		case reflect.Ptr:
			if !field.IsNil() {
				elem := field.Elem()
				if elem.Kind() == reflect.Struct {
					if err := replaceInStructValue(elem, kvMap, logger); err != nil {
						return fmt.Errorf("failed to replace in pointer field '%s': %w", fieldType.Name, err)
					}
				}
			}

		case reflect.Map:
			// Only map[string]string fields carry replaceable values in this config
			if field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.String {
				mapVal := field.Interface().(map[string]string)
				for key, value := range mapVal {
					oldValue := value
					newValue := ReplaceKeyReferences(value, kvMap, logger)
					if oldValue != newValue {
						mapVal[key] = newValue
						logger.Debug().
							Str("field", fieldType.Name).
							Str("key", key).
							Msg("Replaced key reference in map field")
					}
				}
			}

		case reflect.Slice:
			// Handle slice of strings (e.g., Senders, ExcludePatterns)
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					oldValue := elem.String()
					newValue := ReplaceKeyReferences(oldValue, kvMap, logger)
					if oldValue != newValue {
						elem.SetString(newValue)
						logger.Debug().
							Str("field", fieldType.Name).
							Int("index", j).
							Msg("Replaced key reference in slice field")
					}
				}
			}
		}
	}

	return nil
}
