package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type msisdnHolder struct {
	Number string `validate:"msisdn"`
}

type smartCardHolder struct {
	Card string `validate:"smartcard"`
}

func TestValidateMSISDN(t *testing.T) {
	cv := NewCustomValidator()

	cases := []struct {
		number string
		valid  bool
	}{
		{"08031234567", true},
		{"07098765432", true},
		{"+2348031234567", true},
		{"+447911123456", true},
		{"0803123456", false},   // too short
		{"080312345678", false}, // too long
		{"8031234567", false},   // missing leading zero
		{"+0348031234567", false},
		{"0803123456a", false},
		{"", false},
	}
	for _, tc := range cases {
		err := cv.Validate(&msisdnHolder{Number: tc.number})
		if tc.valid {
			assert.NoError(t, err, "number %q should be valid", tc.number)
		} else {
			assert.Error(t, err, "number %q should be invalid", tc.number)
		}
	}
}

func TestValidateSmartCard(t *testing.T) {
	cv := NewCustomValidator()

	cases := []struct {
		card  string
		valid bool
	}{
		{"1234567890", true},
		{"123456789012", true},
		{"123456789", false},
		{"1234567890123", false},
		{"12345abc90", false},
	}
	for _, tc := range cases {
		err := cv.Validate(&smartCardHolder{Card: tc.card})
		if tc.valid {
			assert.NoError(t, err, "card %q should be valid", tc.card)
		} else {
			assert.Error(t, err, "card %q should be invalid", tc.card)
		}
	}
}
