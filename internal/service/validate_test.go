package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPhone(t *testing.T) {
	valid := []string{"9876543210", "+919876543210", "+91 9876543210", "+1-5551234567", " 9876543210 "}
	for _, p := range valid {
		assert.True(t, ValidPhone(p), p)
	}
	invalid := []string{"", "12345", "98765432101", "98765abcde", "+1234 9876543210", "91 9876543210", "+91  9876543210"}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), p)
	}
}

func TestValidateDetails(t *testing.T) {
	require.NoError(t, ValidateDetails("Asha", "9876543210"))

	var ve *ValidationError
	require.ErrorAs(t, ValidateDetails("  ", "9876543210"), &ve)
	assert.Equal(t, "passenger_name", ve.Field)

	require.ErrorAs(t, ValidateDetails("Asha", ""), &ve)
	assert.Equal(t, "passenger_phone", ve.Field)

	require.ErrorAs(t, ValidateDetails("Asha", "555"), &ve)
	assert.Equal(t, "passenger_phone", ve.Field)
}

func TestPassengerNameLengthCountsCharacters(t *testing.T) {
	// 50 Devanagari letters are 150 bytes but well under the limit.
	short := strings.Repeat("क", 50)
	require.NoError(t, ValidateDetails(short, "9876543210"))
	in := validInput("A")
	in.PassengerName = short
	require.NoError(t, ValidateInput(in))

	long := strings.Repeat("क", 121)
	var ve *ValidationError
	require.ErrorAs(t, ValidateDetails(long, "9876543210"), &ve)
	assert.Equal(t, "passenger_name", ve.Field)
	assert.Equal(t, "is too long", ve.Reason)
	assert.Equal(t, MsgNameTooLong, UserMessage(ve))

	in.PassengerName = long
	require.ErrorAs(t, ValidateInput(in), &ve)
	assert.Equal(t, "passenger_name", ve.Field)
	assert.Equal(t, "is too long", ve.Reason)
	assert.Equal(t, MsgNameTooLong, UserMessage(ve))
}

func TestValidateDetailsMatchesValidateInput(t *testing.T) {
	cases := []struct{ name, phone string }{
		{"Asha", "9876543210"},
		{"", "9876543210"},
		{"Asha", "555"},
		{"Asha", ""},
		{strings.Repeat("a", 120), "+91 9876543210"},
		{strings.Repeat("a", 121), "9876543210"},
	}
	for _, c := range cases {
		in := validInput("A")
		in.PassengerName, in.PassengerPhone = c.name, c.phone
		want, got := ValidateInput(in), ValidateDetails(c.name, c.phone)
		if want == nil {
			assert.NoError(t, got, c.name)
			continue
		}
		assert.Equal(t, want, got, c.name)
	}
}
