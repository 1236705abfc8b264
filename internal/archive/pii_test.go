package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashContact(t *testing.T) {
	h1 := HashContact("Jane@Example.com ", "")
	h2 := HashContact("jane@example.com", "555-0100")
	h3 := HashContact("", "555-0100")

	assert.Equal(t, h1, h2, "email wins and is case-insensitive")
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64, "SHA-256 hex should be 64 chars")
	assert.Empty(t, HashContact(" ", ""))
}

func TestScrubPII(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"email", "reach me at jane@example.com please", "reach me at [EMAIL] please"},
		{"phone", "call me at (330) 333-2654", "call me at[PHONE]"},
		{"phone with plus", "my number is +15005550002", "my number is [PHONE]"},
		{"both", "email: a@b.com phone: 330-333-2654", "email: [EMAIL] phone:[PHONE]"},
		{"no pii", "I need a new Shopify theme", "I need a new Shopify theme"},
		{"name kept", "My name is Jane Doe", "My name is Jane Doe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ScrubPII(tt.input))
		})
	}
}
