package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Setting values arrive either decoded from JSON (string, bool, float64,
// []any) or as strings typed on the command line. These helpers accept both.

func toString(key string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("%s: expected string, got %T", key, v)
}

func toBool(key string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("%s: expected true or false, got %q", key, b)
		}
		return parsed, nil
	}
	return false, fmt.Errorf("%s: expected bool, got %T", key, v)
}

func toInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%s: expected an integer, got %q", key, n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("%s: expected number, got %T", key, v)
}

func toFloat(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: expected a number, got %q", key, n)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("%s: expected number, got %T", key, v)
}

func toDuration(key string, v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case float64:
		return time.Duration(d), nil
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(d))
		if err != nil {
			return 0, fmt.Errorf("%s: invalid duration %q: %w", key, d, err)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("%s: expected duration, got %T", key, v)
}

// toStringList accepts a JSON array or a comma-separated string.
func toStringList(key string, v any) ([]string, error) {
	var out []string
	switch list := v.(type) {
	case []string:
		out = append(out, list...)
	case []any:
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected list of strings, got %T element", key, item)
			}
			out = append(out, s)
		}
	case string:
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case nil:
	default:
		return nil, fmt.Errorf("%s: expected list, got %T", key, v)
	}
	return out, nil
}
