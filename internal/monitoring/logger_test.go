package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("tile (%d,%d) saved", 1, -2)
	assert.Equal(t, "tile (1,-2) saved", got)

	// nil installs a no-op logger instead of panicking.
	SetLogger(nil)
	Logf("dropped")
	assert.Equal(t, "tile (1,-2) saved", got)
}
