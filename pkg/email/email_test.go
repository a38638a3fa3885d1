package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "plain", input: "sara@example.com", want: "sara@example.com", wantOK: true},
		{name: "trims and lowers domain", input: "  Sara.A@Example.COM ", want: "Sara.A@example.com", wantOK: true},
		{name: "plus tag", input: "sara+kyc@example.ir", want: "sara+kyc@example.ir", wantOK: true},
		{name: "missing at", input: "sara.example.com"},
		{name: "missing local part", input: "@example.com"},
		{name: "dotless domain", input: "sara@localhost"},
		{name: "display name", input: "Sara <sara@example.com>"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, Valid(tt.input))
		})
	}
}
