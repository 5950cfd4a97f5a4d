package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"career-compass/internal/models"

	"github.com/samber/lo"
)

// ClearKey is the reserved input key listing columns to set to null.
const ClearKey = "clear"

// Fields is a raw record as submitted by a form or API caller.
type Fields map[string]any

// Patch is a partial update. Columns absent from both Set and Clear are left unchanged.
type Patch struct {
	ID    string         `json:"app_uuid"`
	Set   map[string]any `json:"set"`
	Clear []string       `json:"clear,omitempty"`
}

// Columns returns the set column names, sorted.
func (p *Patch) Columns() []string {
	cols := lo.Keys(p.Set)
	sort.Strings(cols)
	return cols
}

// Values merges Set and Clear into one column map, cleared columns as nil.
func (p *Patch) Values() map[string]any {
	values := make(map[string]any, len(p.Set)+len(p.Clear))
	for k, v := range p.Set {
		values[k] = v
	}
	for _, col := range p.Clear {
		values[col] = nil
	}
	return values
}

// Normalize builds an update patch from raw fields using DefaultRegistry.
func Normalize(fields Fields, due DueDate, now time.Time) (*Patch, error) {
	return DefaultRegistry.Normalize(fields, due, now)
}

func (r Registry) Normalize(fields Fields, due DueDate, now time.Time) (*Patch, error) {
	if due.Err != nil {
		return nil, due.Err
	}

	id, ok := identifier(fields[models.FieldID])
	if !ok {
		return nil, &ValidationError{Kind: KindMissingIdentifier, Field: models.FieldID, Message: msgMissingIdentifier}
	}

	set, err := r.collect(fields, due)
	if err != nil {
		return nil, err
	}

	cleared, err := r.clearList(fields[ClearKey], set)
	if err != nil {
		return nil, err
	}

	set[models.FieldLastTouch] = now.UTC()

	return &Patch{ID: id, Set: set, Clear: cleared}, nil
}

// collect applies the registry rules; absent values are omitted.
func (r Registry) collect(fields Fields, due DueDate) (map[string]any, error) {
	set := make(map[string]any, len(r)+1)

	for _, f := range r {
		switch f.Rule {
		case RuleText:
			if s, ok := coerceText(fields[f.Name]); ok {
				set[f.Name] = s
			}
		case RulePassthrough:
			if v, ok := passthrough(fields[f.Name]); ok {
				set[f.Name] = v
			}
		case RuleNumber:
			n, ok, err := coerceNumber(f.Name, fields[f.Name])
			if err != nil {
				return nil, err
			}
			if ok {
				set[f.Name] = n
			}
		case RuleDate:
			if due.Present() {
				set[f.Name] = due.Value
			}
		}
	}

	return set, nil
}

func (r Registry) clearList(raw any, set map[string]any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}

	var names []string
	switch v := raw.(type) {
	case []string:
		names = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidClear(ClearKey, "clear must list column names")
			}
			names = append(names, s)
		}
	default:
		return nil, invalidClear(ClearKey, "clear must list column names")
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == models.FieldID || name == models.FieldLastTouch {
			return nil, invalidClear(name, fmt.Sprintf("%s cannot be cleared", name))
		}
		if _, ok := r.Lookup(name); !ok {
			return nil, invalidClear(name, fmt.Sprintf("unknown column %q", name))
		}
		if _, ok := set[name]; ok {
			return nil, invalidClear(name, fmt.Sprintf("%s cannot be set and cleared at once", name))
		}
		requested[name] = true
	}

	// registry order keeps the output deterministic
	cleared := lo.Filter(r.Names(), func(name string, _ int) bool { return requested[name] })
	if len(cleared) == 0 {
		return nil, nil
	}
	return cleared, nil
}

func identifier(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func coerceText(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

// passthrough keeps v as given; only nil and blank strings count as absent.
func passthrough(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func coerceNumber(field string, v any) (int64, bool, error) {
	var n float64

	switch t := v.(type) {
	case nil:
		return 0, false, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, invalidNumber(field)
		}
		n = f
	case json.Number:
		s := strings.TrimSpace(t.String())
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, invalidNumber(field)
		}
		n = f
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		return int64(t), true, nil
	case int32:
		return int64(t), true, nil
	case int64:
		return t, true, nil
	default:
		return 0, false, invalidNumber(field)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, false, invalidNumber(field)
	}
	if n >= math.MaxInt64 || n < math.MinInt64 {
		return 0, false, invalidNumber(field)
	}

	return int64(n), true, nil
}
