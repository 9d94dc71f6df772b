package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BFF_TEST_STR", "  http://user-service:3001 ")
	t.Setenv("BFF_TEST_INT", "4001")
	t.Setenv("BFF_TEST_BAD_INT", "forty")
	t.Setenv("BFF_TEST_BOOL", "yes")
	t.Setenv("BFF_TEST_DUR", "250ms")
	t.Setenv("BFF_TEST_DUR_SECONDS", "300")

	assert.Equal(t, "http://user-service:3001", String("BFF_TEST_STR", "x"))
	assert.Equal(t, "fallback", String("BFF_TEST_MISSING", "fallback"))
	assert.Equal(t, 4001, Int("BFF_TEST_INT", 0))
	assert.Equal(t, 7, Int("BFF_TEST_BAD_INT", 7))
	assert.True(t, Bool("BFF_TEST_BOOL", false))
	assert.True(t, Bool("BFF_TEST_MISSING", true))
	assert.Equal(t, 250*time.Millisecond, Duration("BFF_TEST_DUR", time.Second))
	assert.Equal(t, 300*time.Second, Duration("BFF_TEST_DUR_SECONDS", time.Second))
}
