package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string, number, list or null.
// Lists are joined with "-" so salary ranges stored as arrays keep their shape.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, err := flexText(v)
	if err != nil {
		return err
	}
	*f = FlexString(s)
	return nil
}

// FlexStrings accepts a JSON list of strings, a single string or null
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*f = nil
	case []any:
		out := make(FlexStrings, 0, len(val))
		for _, item := range val {
			s, err := flexText(item)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		*f = out
	default:
		s, err := flexText(val)
		if err != nil {
			return err
		}
		if s == "" {
			*f = nil
			return nil
		}
		*f = FlexStrings{s}
	}
	return nil
}

func flexText(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, err := flexText(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "-"), nil
	default:
		return "", fmt.Errorf("unsupported value %T", v)
	}
}
