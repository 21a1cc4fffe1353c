package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStricter(t *testing.T) {
	require.Equal(t, SeverityError, Stricter(SeverityWarn, SeverityError))
	require.Equal(t, SeverityError, Stricter(SeverityError, SeverityWarn))
	require.Equal(t, SeverityWarn, Stricter(SeverityWarn, SeverityWarn))
}

func TestFlagDescriptorValidate(t *testing.T) {
	ok := FlagDescriptor{Type: FlagOperator, Value: "==", Severity: SeverityError}
	require.NoError(t, ok.Validate())

	cases := []FlagDescriptor{
		{Type: FlagOperator, Value: "", Severity: SeverityError},         // empty value
		{Type: "gadget", Value: "x", Severity: SeverityError},            // unknown type
		{Type: FlagKeyword, Value: "var", Severity: "critical"},          // severity outside enum
		{Type: FlagKeyword, Value: "var", Severity: ""},                  // missing severity
	}
	for _, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("expected validation failure for %+v", c)
		}
	}
}
