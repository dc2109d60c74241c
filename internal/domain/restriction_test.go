package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestriction_States(t *testing.T) {
	u := Unrestricted()
	assert.True(t, u.IsUnrestricted())
	assert.False(t, u.IsEmpty())
	assert.Nil(t, u.IDs())
	assert.Equal(t, -1, u.Len())

	e := EmptyRestriction()
	assert.True(t, e.IsEmpty())
	assert.Equal(t, 0, e.Len())

	assert.True(t, RestrictTo(nil).IsEmpty())
	assert.Equal(t, []string{"a", "b"}, RestrictTo([]string{"b", "a", "b"}).IDs())
}

func TestRestriction_Intersect(t *testing.T) {
	tests := []struct {
		name      string
		start     Restriction
		with      []string
		wantIDs   []string
		wantEmpty bool
	}{
		{"unrestricted adopts set", Unrestricted(), []string{"x", "y"}, []string{"x", "y"}, false},
		{"unrestricted with nothing is empty", Unrestricted(), nil, nil, true},
		{"overlap keeps shared", RestrictTo([]string{"a", "b", "c"}), []string{"b", "c", "d"}, []string{"b", "c"}, false},
		{"disjoint is empty", RestrictTo([]string{"a"}), []string{"b"}, nil, true},
		{"empty stays empty", EmptyRestriction(), []string{"a"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Intersect(tt.with)
			assert.Equal(t, tt.wantEmpty, got.IsEmpty())
			assert.Equal(t, tt.wantIDs, got.IDs())
		})
	}
}

func TestCrowdAndAccessibilityValid(t *testing.T) {
	assert.True(t, CrowdModerate.Valid())
	assert.False(t, CrowdLevel("Packed").Valid())
	assert.True(t, AccessDifficult.Valid())
	assert.False(t, Accessibility("").Valid())
}

func TestCriteria_ColumnFilter(t *testing.T) {
	c := Criteria{Country: "Greece", Vibe: "Calm", CrowdLevel: CrowdLow}
	assert.Equal(t, ColumnFilter{Country: "Greece", CrowdLevel: CrowdLow}, c.ColumnFilter())
}
