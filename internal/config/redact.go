package config

import (
	"reflect"
	"strings"
)

var sensitiveFieldNames = map[string]struct{}{
	"token":      {},
	"secret":     {},
	"password":   {},
	"credential": {},
	"dsn":        {},
}

// ToRedactedMap flattens cfg into a string-keyed map suitable for
// `sunbeam config dump`, replacing any field whose mapstructure tag
// name matches a sensitive field with "[REDACTED]". Unlike the
// observability package's log-line redactor (which scans rendered
// attribute values), this walks the struct directly so dump output
// never serializes the sensitive value in the first place.
func ToRedactedMap(cfg *SunbeamConfig) map[string]any {
	return flattenStruct(reflect.ValueOf(*cfg))
}

func flattenStruct(v reflect.Value) map[string]any {
	out := make(map[string]any)
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(field.Name)
		}

		fieldValue := v.Field(i)
		if fieldValue.Kind() == reflect.Struct {
			out[tag] = flattenStruct(fieldValue)
			continue
		}

		if isSensitiveField(tag) {
			out[tag] = "[REDACTED]"
			continue
		}

		out[tag] = fieldValue.Interface()
	}

	return out
}

func isSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for sensitive := range sensitiveFieldNames {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
