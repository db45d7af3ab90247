package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDevelopment(t *testing.T) {
	tests := map[string]bool{
		"0.1.0-dev": true,
		"1.2.3":     false,
		"garbage!":  true,
	}
	for v, want := range tests {
		assert.Equal(t, want, Info{Version: v}.Development(), v)
	}
}
