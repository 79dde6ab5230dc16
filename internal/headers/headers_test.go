package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	tests := []struct {
		name      string
		policies  []Policy
		wantError string
	}{
		{
			name:     "valid policies compile",
			policies: DefaultPolicies(),
		},
		{
			name:     "empty policy list",
			policies: []Policy{},
		},
		{
			name: "invalid regex",
			policies: []Policy{
				{Name: "invalid", PathPattern: `[unclosed`},
			},
			wantError: "invalid path_pattern in policy \"invalid\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := NewManager(tt.policies)

			if tt.wantError != "" {
				require.ErrorContains(t, err, tt.wantError)
				assert.Nil(t, mgr)

				return
			}

			require.NoError(t, err)
			assert.Len(t, mgr.policies, len(tt.policies))
		})
	}
}

func TestManagerMatch(t *testing.T) {
	mgr, err := NewManager(DefaultPolicies())
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want map[string]string
	}{
		{
			name: "versioned stream",
			path: "/v1/public_timeline",
			want: map[string]string{"Cache-Control": "no-cache", "X-Accel-Buffering": "no"},
		},
		{
			name: "legacy stream",
			path: "/public_timeline",
			want: map[string]string{"Cache-Control": "no-cache", "X-Accel-Buffering": "no"},
		},
		{
			name: "job page",
			path: "/job/start",
			want: map[string]string{"Cache-Control": "no-store"},
		},
		{
			name: "no match",
			path: "/health",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mgr.Match(tt.path))
		})
	}
}

func TestManagerMatch_FirstWins(t *testing.T) {
	mgr, err := NewManager([]Policy{
		{Name: "first", PathPattern: `^/job/`, Headers: map[string]string{"X-Policy": "first"}},
		{Name: "second", PathPattern: `^/job/start$`, Headers: map[string]string{"X-Policy": "second"}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"X-Policy": "first"}, mgr.Match("/job/start"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPolicies(), cfg.Policies)

	bad := Config{Policies: []Policy{{Name: "x", PathPattern: "("}}}
	require.Error(t, bad.Validate())

	unnamed := Config{Policies: []Policy{{PathPattern: ".*"}}}
	require.Error(t, unnamed.Validate())
}
