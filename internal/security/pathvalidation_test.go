package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		path    string
		dir     string
		wantErr bool
	}{
		{"plain child", "/tiles/atlaas.0x0.tif", "/tiles", false},
		{"nested child", "/tiles/a/b.tif", "/tiles", false},
		{"the directory itself", "/tiles", "/tiles", false},
		{"parent escape", "/tiles/../etc/passwd", "/tiles", true},
		{"dot-dot in the middle", "/tiles/a/../../etc", "/tiles", true},
		{"sibling directory", "/tiles-evil/x.tif", "/tiles", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePathWithinDirectory(tc.path, tc.dir)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
