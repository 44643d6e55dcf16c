package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "smutrack/internal/errors"
)

func TestNewLegTopology(t *testing.T) {
	tests := []struct {
		name                  string
		origin, transit, dest string
		want                  LegTopology
		wantErr               bool
	}{
		{name: "direct", origin: "cgk", dest: " syd ", want: LegTopology{Origin: "CGK", Destination: "SYD"}},
		{name: "with transit", origin: "CGK", transit: "dps", dest: "SYD", want: LegTopology{Origin: "CGK", Transit: "DPS", Destination: "SYD"}},
		{name: "origin equals destination", origin: "CGK", dest: "CGK", wantErr: true},
		{name: "transit equals origin", origin: "CGK", transit: "CGK", dest: "SYD", wantErr: true},
		{name: "transit equals destination", origin: "CGK", transit: "SYD", dest: "SYD", wantErr: true},
		{name: "long code", origin: "CGKX", dest: "SYD", wantErr: true},
		{name: "missing destination", origin: "CGK", wantErr: true},
		{name: "digits", origin: "CG1", dest: "SYD", wantErr: true},
		{name: "bad transit", origin: "CGK", transit: "D", dest: "SYD", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLegTopology(tt.origin, tt.transit, tt.dest)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLegTopologyNextHop(t *testing.T) {
	assert.Equal(t, "DPS", LegTopology{Origin: "CGK", Transit: "DPS", Destination: "SYD"}.NextHop())
	assert.Equal(t, "SYD", LegTopology{Origin: "CGK", Destination: "SYD"}.NextHop())
	assert.Equal(t, "CGK-DPS-SYD", LegTopology{Origin: "CGK", Transit: "DPS", Destination: "SYD"}.String())
}
