package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {
				Host:   "http://localhost:8080",
				Output: "table",
			},
			"staging": {
				Host:   "https://staging.example.com",
				Output: "json",
			},
		},
	}

	tests := []struct {
		name     string
		override string
		wantHost string
	}{
		{
			name:     "uses current profile",
			override: "",
			wantHost: "http://localhost:8080",
		},
		{
			name:     "override to staging",
			override: "staging",
			wantHost: "https://staging.example.com",
		},
		{
			name:     "nonexistent profile returns empty",
			override: "nonexistent",
			wantHost: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cfg.ActiveProfile(tt.override)
			assert.Equal(t, tt.wantHost, p.Host)
		})
	}
}

func TestUserConfig_SaveLoadRoundtrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &UserConfig{
		CurrentProfile: "staging",
		Profiles: map[string]Profile{
			"staging": {Host: "https://staging.example.com", Token: "tok", Output: "json"},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	got, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", got.CurrentProfile)
	assert.Equal(t, "https://staging.example.com", got.Profiles["staging"].Host)
	assert.Equal(t, "tok", got.Profiles["staging"].Token)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadUserConfig()
	require.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "eyJh****4dQw", maskSecret("eyJhbGciOiJIUzI1NiJ94dQw"))
}
