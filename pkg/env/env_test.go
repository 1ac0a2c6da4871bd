package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDevelopEnv(t *testing.T) {
	t.Setenv(envKey, "")
	assert.True(t, IsDevelopEnv())
	t.Setenv(envKey, "Develop")
	assert.True(t, IsDevelopEnv())
	t.Setenv(envKey, "prod")
	assert.False(t, IsDevelopEnv())
}
