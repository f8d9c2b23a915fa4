package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		dialect string
		banner  string
		server  string
		ok      bool
	}{
		{"postgres", "16.2 (Debian 16.2-1.pgdg120+2)", "16.2.0", true},
		{"mysql", "10.11.6-MariaDB-0+deb12u1", "10.11.6", true},
		{"mysql", "4.1.22-community", "4.1.22", false},
		{"sqlite", "3.45.1", "3.45.1", true},
		{"sqlserver", "10.50.6000.34", "10.50.6000", false},
		{"sqlserver", "16.0.1000.6", "16.0.1000", true},
		{"oracle", "19.0.0.0.0", "19.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+" "+tt.banner, func(t *testing.T) {
			r, err := Check(tt.dialect, tt.banner)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, r.OK)
			assert.Equal(t, tt.dialect, r.Dialect)
			assert.Contains(t, r.Server.String(), tt.server)
		})
	}
}

func TestCheckErrors(t *testing.T) {
	_, err := Check("db2", "11.5")
	assert.Error(t, err)

	_, err = Check("postgres", "unknown")
	assert.Error(t, err)
}

func TestFor(t *testing.T) {
	r, err := For("sqlserver")
	require.NoError(t, err)
	assert.Equal(t, "OFFSET/FETCH", r.Syntax)
	assert.NotEmpty(t, r.Query)
}
