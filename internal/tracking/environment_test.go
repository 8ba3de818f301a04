package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"beacon/internal/tracking"
)

func TestEnvironmentMap_Resolve(t *testing.T) {
	m := tracking.EnvironmentMap{
		Local:      []string{"localhost", "127.0.0.1"},
		Staging:    []string{"cloudfront.net"},
		Production: []string{"example.com"},
	}

	cases := []struct {
		host string
		want tracking.Environment
	}{
		{"localhost", tracking.EnvLocal},
		{"127.0.0.1", tracking.EnvLocal},
		{"d111abcdef8.cloudfront.net", tracking.EnvStaging},
		{"example.com", tracking.EnvProduction},
		{"www.example.com", tracking.EnvProduction},
		{"WWW.EXAMPLE.COM", tracking.EnvProduction},
		{"evil-example.com", tracking.EnvUnknown},
		{"something.else", tracking.EnvUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, m.Resolve(tc.host), "host %q", tc.host)
	}
}
