package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		flagValue string
		flagSet   bool
		env       string
		want      string
		wantErr   string
	}{
		{name: "default when nothing set", flagValue: defaultHost, want: "http://localhost:8080"},
		{name: "env over default", flagValue: defaultHost, env: "https://scout.example.org", want: "https://scout.example.org"},
		{name: "flag over env", flagValue: "http://10.0.0.5:8080", flagSet: true, env: "https://scout.example.org", want: "http://10.0.0.5:8080"},
		{name: "trailing slash trimmed", flagValue: "http://pit-laptop:8080/", flagSet: true, want: "http://pit-laptop:8080"},
		{name: "blank env ignored", flagValue: defaultHost, env: "   ", want: "http://localhost:8080"},
		{name: "env error names SCOUT_HOST", flagValue: defaultHost, env: "pit-laptop:8080", wantErr: `invalid SCOUT_HOST "pit-laptop:8080": scheme must be http or https`},
		{name: "flag error names --host", flagValue: "ftp://pit-laptop", flagSet: true, wantErr: `invalid --host "ftp://pit-laptop"`},
		{name: "empty flag", flagValue: " ", flagSet: true, wantErr: "host URL cannot be empty"},
		{name: "api path rejected", flagValue: "http://localhost:8080/v1", flagSet: true, wantErr: "scout adds /v1 itself"},
		{name: "bogus url", flagValue: "://bad", flagSet: true, wantErr: `invalid --host "://bad"`},
		{name: "query rejected", flagValue: "http://localhost:8080?team=254", flagSet: true, wantErr: "query or fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			getenv := func(key string) string {
				if key == hostEnvVar {
					return tt.env
				}
				return ""
			}

			got, err := resolveHost(tt.flagValue, tt.flagSet, getenv)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
