package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// applyFile reads a flat YAML document of env-style keys and exports every
// key that is not already set in the environment.
//
//	PORT: 9090
//	OBJECT_STORE: minio
//	KAFKA_BROKERS: [broker-1:9092, broker-2:9092]
func applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	values, err := parseFile(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, val := range values {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func parseFile(data []byte) (map[string]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" || val == nil {
			continue
		}
		out[k] = stringify(val)
	}
	return out, nil
}

func stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
