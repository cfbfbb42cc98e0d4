package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkobilansky/abkit/internal/stats"
)

func TestNewVariantSet_StampsRoles(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100, Role: stats.RoleTreatment},
		stats.Variant{Name: "Variation A", Visitors: 1000, Conversions: 120},
	)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, stats.RoleControl, set.Control().Role)
	assert.Equal(t, "Control", set.Control().Name)
	for _, v := range set.Treatments() {
		assert.Equal(t, stats.RoleTreatment, v.Role)
	}
}

func TestNewVariantSet_Validation(t *testing.T) {
	control := stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100}

	tests := []struct {
		name       string
		treatments []stats.Variant
	}{
		{"no treatments", nil},
		{"empty name", []stats.Variant{{Name: " ", Visitors: 10, Conversions: 1}}},
		{"zero visitors", []stats.Variant{{Name: "B", Visitors: 0}}},
		{"negative conversions", []stats.Variant{{Name: "B", Visitors: 10, Conversions: -1}}},
		{"conversions above visitors", []stats.Variant{{Name: "B", Visitors: 10, Conversions: 11}}},
		{"duplicate name", []stats.Variant{{Name: "Control", Visitors: 10, Conversions: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := stats.NewVariantSet(control, tt.treatments...)
			assert.ErrorIs(t, err, stats.ErrInvalidInput)
		})
	}
}

func TestVariantSetFromVariants_ControlByRoleNotPosition(t *testing.T) {
	set, err := stats.VariantSetFromVariants([]stats.Variant{
		{Name: "B", Visitors: 1000, Conversions: 120},
		{Name: "A", Visitors: 1000, Conversions: 100, Role: stats.RoleControl},
		{Name: "C", Visitors: 1000, Conversions: 90, Role: stats.RoleTreatment},
	})
	require.NoError(t, err)

	assert.Equal(t, "A", set.Control().Name)
	names := []string{}
	for _, v := range set.Treatments() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"B", "C"}, names)
}

func TestVariantSetFromVariants_RequiresExactlyOneControl(t *testing.T) {
	_, err := stats.VariantSetFromVariants([]stats.Variant{
		{Name: "A", Visitors: 10, Conversions: 1},
		{Name: "B", Visitors: 10, Conversions: 1},
	})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.VariantSetFromVariants([]stats.Variant{
		{Name: "A", Visitors: 10, Conversions: 1, Role: stats.RoleControl},
		{Name: "B", Visitors: 10, Conversions: 1, Role: stats.RoleControl},
	})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = stats.VariantSetFromVariants([]stats.Variant{
		{Name: "A", Visitors: 10, Conversions: 1, Role: stats.RoleControl},
		{Name: "B", Visitors: 10, Conversions: 1, Role: "holdout"},
	})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

func TestVariantSet_EditsReturnNewSets(t *testing.T) {
	original := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Variation A", Visitors: 1000, Conversions: 120},
	)

	added, err := original.WithTreatment(stats.Variant{Name: "Variation B", Visitors: 1000, Conversions: 110})
	require.NoError(t, err)
	assert.Equal(t, 2, original.Len())
	assert.Equal(t, 3, added.Len())

	removed, err := added.WithoutVariant("Variation A")
	require.NoError(t, err)
	assert.Equal(t, 3, added.Len())
	_, ok := removed.Lookup("Variation A")
	assert.False(t, ok)

	replaced, err := original.ReplaceVariant("Control", stats.Variant{Name: "Baseline", Visitors: 500, Conversions: 50})
	require.NoError(t, err)
	assert.Equal(t, "Baseline", replaced.Control().Name)
	assert.Equal(t, stats.RoleControl, replaced.Control().Role)
	assert.Equal(t, "Control", original.Control().Name)
}

func TestVariantSet_EditErrors(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Variation A", Visitors: 1000, Conversions: 120},
	)

	_, err := set.WithoutVariant("Control")
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = set.WithoutVariant("Variation A")
	assert.ErrorIs(t, err, stats.ErrInvalidInput, "a set never drops below two variants")

	_, err = set.WithoutVariant("missing")
	assert.ErrorIs(t, err, stats.ErrInvalidInput)

	_, err = set.ReplaceVariant("missing", stats.Variant{Name: "X", Visitors: 1})
	assert.ErrorIs(t, err, stats.ErrInvalidInput)
}

func TestVariantSet_AccessorsReturnCopies(t *testing.T) {
	set := mustSet(t,
		stats.Variant{Name: "Control", Visitors: 1000, Conversions: 100},
		stats.Variant{Name: "Variation A", Visitors: 1000, Conversions: 120},
	)

	vs := set.Variants()
	vs[0].Conversions = 999
	ts := set.Treatments()
	ts[0].Name = "changed"

	assert.Equal(t, 100, set.Control().Conversions)
	assert.Equal(t, "Variation A", set.Treatments()[0].Name)
}

func TestDefaultVariantName(t *testing.T) {
	assert.Equal(t, "Variation A", stats.DefaultVariantName(0))
	assert.Equal(t, "Variation C", stats.DefaultVariantName(2))
	assert.Equal(t, "Variation 27", stats.DefaultVariantName(26))
}

func TestKind(t *testing.T) {
	_, err := stats.SampleSize(0.5, 2, 0.05, 0.8)
	assert.Equal(t, "InvalidEffectSize", stats.Kind(err))
	assert.Equal(t, "", stats.Kind(nil))
}
