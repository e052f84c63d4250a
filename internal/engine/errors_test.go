package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAsRuleError tests unwrapping through fmt.Errorf chains.
func TestAsRuleError(t *testing.T) {
	base := &RuleError{
		Rule:     RuleWrongPerson,
		Override: AllowWrongPerson,
		RadioID:  "7",
		Message:  `radio was checked out by "Alice"`,
	}
	wrapped := fmt.Errorf("return failed: %w", base)

	re, ok := AsRuleError(wrapped)
	require.True(t, ok)
	assert.Equal(t, AllowWrongPerson, re.Override)

	_, ok = AsRuleError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

// TestParseOverrideKind tests flag-value validation.
func TestParseOverrideKind(t *testing.T) {
	kind, err := ParseOverrideKind("ALLOW_DOUBLE_CHECKOUT")
	require.NoError(t, err)
	assert.Equal(t, AllowDoubleCheckout, kind)

	_, err = ParseOverrideKind("ALLOW_DOUBLE_CHECKIN")
	require.Error(t, err)
}

// TestOverrides tests set semantics.
func TestOverrides(t *testing.T) {
	ov := NewOverrides(AllowDoubleReturn)
	assert.True(t, ov.Has(AllowDoubleReturn))
	assert.False(t, ov.Has(AllowWrongPerson))

	ov.Add(AllowWrongPerson)
	assert.True(t, ov.Has(AllowWrongPerson))

	// A fresh set never inherits earlier kinds.
	assert.False(t, NewOverrides().Has(AllowDoubleReturn))
}
