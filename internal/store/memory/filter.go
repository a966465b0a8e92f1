package memory

import (
	"fmt"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
)

// fieldValue returns the named column of iv; nil stands for SQL NULL.
func fieldValue(iv models.Interval, field string) (any, error) {
	switch field {
	case store.FieldID:
		return iv.ID, nil
	case store.FieldProjectID:
		return iv.ProjectID, nil
	case store.FieldStartTime:
		return iv.StartTime, nil
	case store.FieldEndTime:
		if iv.EndTime == nil {
			return nil, nil
		}
		return *iv.EndTime, nil
	case store.FieldDurationSeconds:
		if iv.DurationSeconds == nil {
			return nil, nil
		}
		return *iv.DurationSeconds, nil
	case store.FieldIsRunning:
		return iv.IsRunning, nil
	case store.FieldIsManual:
		return iv.IsManual, nil
	}
	return nil, fmt.Errorf("unknown field %q", field)
}

func matches(iv models.Interval, filters []store.Filter) (bool, error) {
	for _, f := range filters {
		v, err := fieldValue(iv, f.Field)
		if err != nil {
			return false, err
		}
		switch f.Op {
		case store.IsNull:
			if v != nil {
				return false, nil
			}
			continue
		case store.NotNull:
			if v == nil {
				return false, nil
			}
			continue
		}
		// comparisons against NULL are never true, as in SQL
		if v == nil {
			return false, nil
		}
		c, err := compare(v, f.Value)
		if err != nil {
			return false, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		var ok bool
		switch f.Op {
		case store.Eq:
			ok = c == 0
		case store.Gt:
			ok = c > 0
		case store.Gte:
			ok = c >= 0
		case store.Lt:
			ok = c < 0
		case store.Lte:
			ok = c <= 0
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// compareFields orders two intervals on field; NULLs sort first.
func compareFields(a, b models.Interval, field string) (int, error) {
	va, err := fieldValue(a, field)
	if err != nil {
		return 0, err
	}
	vb, err := fieldValue(b, field)
	if err != nil {
		return 0, err
	}
	switch {
	case va == nil && vb == nil:
		return 0, nil
	case va == nil:
		return -1, nil
	case vb == nil:
		return 1, nil
	}
	return compare(va, vb)
}

func compare(a, b any) (int, error) {
	switch x := a.(type) {
	case time.Time:
		y, ok := asTime(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare time with %T", b)
		}
		switch {
		case x.Before(y):
			return -1, nil
		case x.After(y):
			return 1, nil
		}
		return 0, nil
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("cannot compare bool with %T", b)
		}
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	}

	x, ok := asInt(a)
	if !ok {
		return 0, fmt.Errorf("unsupported value type %T", a)
	}
	y, ok := asInt(b)
	if !ok {
		return 0, fmt.Errorf("cannot compare integer with %T", b)
	}
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	}
	return time.Time{}, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
