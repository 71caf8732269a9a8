package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    SchemaVersion
		wantErr bool
	}{
		{"", SchemaVersion{1, 0}, false},
		{"1.0", SchemaVersion{1, 0}, false},
		{"2.13", SchemaVersion{2, 13}, false},
		{"1", SchemaVersion{}, true},
		{"1.0.1", SchemaVersion{}, true},
		{"a.b", SchemaVersion{}, true},
		{"-1.0", SchemaVersion{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaVersion_Compare(t *testing.T) {
	v10 := SchemaVersion{1, 0}
	v11 := SchemaVersion{1, 1}
	v20 := SchemaVersion{2, 0}

	assert.Equal(t, -1, v10.Compare(v11))
	assert.Equal(t, 1, v20.Compare(v11))
	assert.Equal(t, 0, v11.Compare(v11))
	assert.Equal(t, "1.1", v11.String())

	assert.True(t, IsSupportedVersion(v11))
	assert.False(t, IsSupportedVersion(v20))
}
