package normalize

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"career-compass/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return fixedNow }

func build(t *testing.T, fields Fields) (*Patch, error) {
	t.Helper()
	return New(WithClock(fixedClock)).Build(fields)
}

func TestBuild_ScenarioA(t *testing.T) {
	patch, err := build(t, Fields{
		"app_uuid": "abc-123",
		"company":  " Acme ",
		"due_date": "2099-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "abc-123", patch.ID)
	assert.Equal(t, map[string]any{
		"company":    "Acme",
		"due_date":   "2099-01-01",
		"last_touch": fixedNow,
	}, patch.Set)
	assert.Empty(t, patch.Clear)
}

func TestBuild_ScenarioB(t *testing.T) {
	patch, err := build(t, Fields{"app_uuid": "abc-123", "due_date": "2000-01-01"})
	require.Error(t, err)
	assert.Nil(t, patch)
	assert.True(t, IsKind(err, KindPastDate))
}

func TestBuild_ScenarioC(t *testing.T) {
	patch, err := build(t, Fields{"app_uuid": "abc-123", "next_action": ""})
	require.NoError(t, err)
	assert.NotContains(t, patch.Set, "next_action")
}

func TestBuild_ScenarioD(t *testing.T) {
	patch, err := build(t, Fields{"app_uuid": "abc-123", "due_date": nil})
	require.NoError(t, err)
	assert.NotContains(t, patch.Set, "due_date")
	assert.NotContains(t, patch.Clear, "due_date")
}

func TestBuild_TrimsText(t *testing.T) {
	patch, err := build(t, Fields{
		"app_uuid":    "abc-123",
		"company":     "  Google  ",
		"role":        "\tSWE\n",
		"notes":       "   ",
		"location":    nil,
		"source":      "Referral",
		"industry":    42,
		"next_action": json.Number("7"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Google", patch.Set["company"])
	assert.Equal(t, "SWE", patch.Set["role"])
	assert.Equal(t, "Referral", patch.Set["source"])
	assert.Equal(t, "42", patch.Set["industry"])
	assert.Equal(t, "7", patch.Set["next_action"])
	assert.NotContains(t, patch.Set, "notes")
	assert.NotContains(t, patch.Set, "location")
}

func TestBuild_PatchKeysAreRegistryColumns(t *testing.T) {
	patch, err := build(t, Fields{
		"app_uuid":   "abc-123",
		"company":    "Acme",
		"unknown":    "ignored",
		"created_at": "2020-01-01",
		"last_touch": "2020-01-01",
		"priority":   "2",
	})
	require.NoError(t, err)

	allowed := append(DefaultRegistry.Names(), models.FieldLastTouch)
	for col := range patch.Set {
		assert.Contains(t, allowed, col)
	}
	assert.NotContains(t, patch.Set, "unknown")
	assert.NotContains(t, patch.Set, "created_at")
	assert.NotContains(t, patch.Set, "app_uuid")
	assert.Equal(t, fixedNow, patch.Set["last_touch"])
}

func TestBuild_Numbers(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
		ok    bool
	}{
		{"string", "3", int64(3), true},
		{"padded string", " 4 ", int64(4), true},
		{"float64 whole", float64(5), int64(5), true},
		{"json number", json.Number("2"), int64(2), true},
		{"int", 1, int64(1), true},
		{"exponent", "1e2", int64(100), true},
		{"empty", "", nil, true},
		{"nil", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := build(t, Fields{"app_uuid": "abc-123", "priority": tt.input})
			require.NoError(t, err)
			if tt.want == nil {
				assert.NotContains(t, patch.Set, "priority")
				return
			}
			assert.Equal(t, tt.want, patch.Set["priority"])
		})
	}
}

func TestBuild_InvalidNumber(t *testing.T) {
	for _, input := range []any{"high", "1.5", 2.25, true, "NaN", "Inf", map[string]any{}} {
		_, err := build(t, Fields{"app_uuid": "abc-123", "company": "Acme", "energy_rating": input})
		require.Error(t, err, "input %#v", input)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, KindInvalidNumber, ve.Kind)
		assert.Equal(t, "energy_rating", ve.Field)
	}
}

func TestBuild_Status(t *testing.T) {
	patch, err := build(t, Fields{"app_uuid": "abc-123", "status": "Ghosted"})
	require.NoError(t, err)
	assert.Equal(t, "Ghosted", patch.Set["status"])

	patch, err = build(t, Fields{"app_uuid": "abc-123", "status": ""})
	require.NoError(t, err)
	assert.NotContains(t, patch.Set, "status")

	// non-text values reach the store as given
	patch, err = build(t, Fields{"app_uuid": "abc-123", "status": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, patch.Set["status"])
}

func TestBuild_MissingIdentifier(t *testing.T) {
	for _, id := range []any{nil, "", "   ", 123} {
		fields := Fields{"company": "Acme", "role": "SWE", "priority": 1, "due_date": "2099-01-01"}
		if id != nil {
			fields["app_uuid"] = id
		}

		_, err := build(t, fields)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindMissingIdentifier), "id %#v", id)
	}
}

func TestBuild_DueDateErrorWins(t *testing.T) {
	_, err := build(t, Fields{"app_uuid": "abc-123", "due_date": "garbage", "priority": "x"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidDate))
}

func TestBuild_Clear(t *testing.T) {
	patch, err := build(t, Fields{
		"app_uuid": "abc-123",
		"company":  "Acme",
		"clear":    []any{"notes", "due_date"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"due_date", "notes"}, patch.Clear)
	assert.NotContains(t, patch.Set, "due_date")

	values := patch.Values()
	assert.Nil(t, values["due_date"])
	assert.Contains(t, values, "due_date")
	assert.Equal(t, "Acme", values["company"])
}

func TestBuild_InvalidClear(t *testing.T) {
	tests := []struct {
		name  string
		clear any
		extra Fields
	}{
		{"identifier", []any{"app_uuid"}, nil},
		{"last touch", []string{"last_touch"}, nil},
		{"unknown column", []any{"salary"}, nil},
		{"not a list", "notes", nil},
		{"non string entry", []any{1}, nil},
		{"set and cleared", []any{"company"}, Fields{"company": "Acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := Fields{"app_uuid": "abc-123", "clear": tt.clear}
			for k, v := range tt.extra {
				fields[k] = v
			}
			_, err := build(t, fields)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInvalidClear))
		})
	}
}

func TestBuild_ClearOfEmptyValueAllowed(t *testing.T) {
	patch, err := build(t, Fields{"app_uuid": "abc-123", "notes": "  ", "clear": []any{"notes"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, patch.Clear)
}

func TestNormalize_UsesGivenTime(t *testing.T) {
	later := fixedNow.Add(48 * time.Hour)
	patch, err := Normalize(Fields{"app_uuid": "x"}, DueDate{}, later)
	require.NoError(t, err)
	assert.Equal(t, later, patch.Set["last_touch"])
}

func TestNormalize_PropagatesDueError(t *testing.T) {
	due := ValidateDueDate("2001-02-03", fixedNow)
	_, err := Normalize(Fields{"app_uuid": "x"}, due, fixedNow)
	require.Error(t, err)
	assert.Same(t, due.Err, err)
}

func TestRegistry_CustomField(t *testing.T) {
	reg := append(Registry{}, DefaultRegistry...)
	reg = append(reg, Field{Name: "salary_note", Rule: RuleText})

	patch, err := New(WithClock(fixedClock), WithRegistry(reg)).Build(Fields{
		"app_uuid":    "abc-123",
		"salary_note": " negotiable ",
	})
	require.NoError(t, err)
	assert.Equal(t, "negotiable", patch.Set["salary_note"])
}

func TestBuildInsert(t *testing.T) {
	n := New(WithClock(fixedClock), WithIDGenerator(func() string { return "generated-id" }))

	patch, err := n.BuildInsert(Fields{
		"company":  " Acme ",
		"role":     "",
		"due_date": "2025-10-25",
		"clear":    []any{"notes"},
	})
	require.NoError(t, err)

	assert.Equal(t, "generated-id", patch.ID)
	assert.Equal(t, map[string]any{
		"app_uuid":   "generated-id",
		"company":    "Acme",
		"status":     "Applied",
		"due_date":   "2025-10-25",
		"last_touch": fixedNow,
	}, patch.Set)
	assert.Empty(t, patch.Clear)
}

func TestBuildInsert_KeepsSuppliedValues(t *testing.T) {
	patch, err := New(WithClock(fixedClock)).BuildInsert(Fields{
		"app_uuid": "chosen",
		"status":   "Wishlist",
	})
	require.NoError(t, err)
	assert.Equal(t, "chosen", patch.ID)
	assert.Equal(t, "Wishlist", patch.Set["status"])
}

func TestBuildInsert_GeneratesUUID(t *testing.T) {
	patch, err := New(WithClock(fixedClock)).BuildInsert(Fields{"company": "Acme"})
	require.NoError(t, err)
	assert.Len(t, patch.ID, 36)
	assert.Equal(t, 4, strings.Count(patch.ID, "-"))
}

func TestBuildInsert_Rejects(t *testing.T) {
	n := New(WithClock(fixedClock))

	_, err := n.BuildInsert(Fields{"due_date": "2020-01-01"})
	assert.True(t, IsKind(err, KindPastDate))

	_, err = n.BuildInsert(Fields{"priority": "top"})
	assert.True(t, IsKind(err, KindInvalidNumber))
}

func TestPatch_Columns(t *testing.T) {
	p := &Patch{Set: map[string]any{"role": "x", "company": "y", "last_touch": fixedNow}}
	assert.Equal(t, []string{"company", "last_touch", "role"}, p.Columns())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Kind: KindInvalidNumber, Field: "priority", Message: "priority must be a whole number"}
	assert.Equal(t, "priority: priority must be a whole number", err.Error())

	err = &ValidationError{Kind: KindPastDate, Message: "Due date cannot be in the past."}
	assert.Equal(t, "Due date cannot be in the past.", err.Error())
}
