package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// coerce rewrites loosely typed model output in place so that it decodes into
// the schema's Go types: thousands separators and percent signs are dropped,
// floats are truncated to integers, empty strings become absent.
func coerce(raw map[string]any, schema Schema) error {
	for _, f := range schema.Fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Type {
		case FieldInteger:
			n, present, err := parseInt(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			if !present {
				delete(raw, f.Name)
				continue
			}
			raw[f.Name] = n
		case FieldPercent:
			p, present, err := parsePercent(v)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			if !present {
				delete(raw, f.Name)
				continue
			}
			raw[f.Name] = p
		case FieldString, FieldDate:
			switch t := v.(type) {
			case string:
				raw[f.Name] = strings.TrimSpace(t)
			case json.Number:
				raw[f.Name] = t.String()
			}
		}
	}
	return nil
}

func parseInt(v any) (int64, bool, error) {
	switch t := v.(type) {
	case json.Number:
		return parseIntString(t.String())
	case float64:
		return int64(math.Trunc(t)), true, nil
	case string:
		return parseIntString(t)
	}
	return 0, false, fmt.Errorf("cannot parse int from %v", v)
}

func parseIntString(s string) (int64, bool, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("cannot parse int from %q", s)
	}
	return int64(math.Trunc(f)), true, nil
}

func parsePercent(v any) (float64, bool, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil, err
	case float64:
		return t, true, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("cannot parse percent from %q", t)
		}
		return f, true, nil
	}
	return 0, false, fmt.Errorf("cannot parse percent from %v", v)
}
