package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "smutrack/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Tracker.PageSettleTimeout)
	assert.Equal(t, 6*time.Second, cfg.Tracker.LatestEventTimeout)
	assert.Equal(t, 2*time.Second, cfg.Tracker.PiecesTimeout)
	assert.Equal(t, 2, cfg.Tracker.MaxConcurrent)
	assert.Equal(t, []string{"Pieces", "Pcs"}, cfg.Tracker.PieceHeaders)

	assert.Equal(t, GarudaPortalURL, cfg.Portal.GarudaURL)
	assert.Equal(t, "#Text_AirlineCode", cfg.Portal.AirlineCodeSelect)
	assert.Equal(t, "#AWBNo", cfg.Portal.AWBField)

	assert.Equal(t, 2, cfg.Search.TimeOrdinal)
	assert.Equal(t, 20*time.Second, cfg.Search.NavigationTimeout)
	assert.Equal(t, 20*time.Second, cfg.Search.RescueWait)
	assert.Empty(t, cfg.Search.Tiers)

	assert.Equal(t, "smutrack", cfg.Publisher.SubjectPrefix)
	assert.Empty(t, cfg.Publisher.NATSURL)

	require.NoError(t, cfg.validate())
}

func TestAttemptTiers(t *testing.T) {
	t.Run("default policy", func(t *testing.T) {
		s := SearchConfig{RescueWait: 20 * time.Second}
		tiers := s.AttemptTiers()

		require.Len(t, tiers, 3)
		for _, tier := range tiers[:2] {
			assert.False(t, tier.Visible)
			assert.True(t, tier.BlockImages)
			assert.Zero(t, tier.PreScanWait)
		}
		assert.True(t, tiers[2].Visible)
		assert.False(t, tiers[2].BlockImages)
		assert.Equal(t, 20*time.Second, tiers[2].PreScanWait)
	})

	t.Run("configured policy wins", func(t *testing.T) {
		s := SearchConfig{
			RescueWait: 20 * time.Second,
			Tiers:      []TierConfig{{Name: "only", Visible: true}},
		}
		assert.Equal(t, []TierConfig{{Name: "only", Visible: true}}, s.AttemptTiers())
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero latest event timeout",
			mutate:  func(c *Config) { c.Tracker.LatestEventTimeout = 0 },
			wantErr: "tracker timeouts must be positive",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Tracker.MaxConcurrent = 0 },
			wantErr: "max concurrent",
		},
		{
			name:    "ordinal below one",
			mutate:  func(c *Config) { c.Search.TimeOrdinal = 0 },
			wantErr: "time ordinal",
		},
		{
			name:    "negative rescue wait",
			mutate:  func(c *Config) { c.Search.RescueWait = -time.Second },
			wantErr: "rescue wait",
		},
		{
			name: "negative tier wait",
			mutate: func(c *Config) {
				c.Search.Tiers = []TierConfig{{Name: "broken", PreScanWait: -time.Second}}
			},
			wantErr: "pre-scan wait",
		},
		{
			name:    "missing portal url",
			mutate:  func(c *Config) { c.Portal.GarudaURL = "" },
			wantErr: "portal garuda url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "logs/smutrack.log", cfg.Logging.FilePath)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9100
search:
  time_ordinal: 1
  tiers:
    - name: stealth
      block_images: true
    - name: rescue
      visible: true
      pre_scan_wait: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Default()
	require.NoError(t, loadFromFile(path, cfg))

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Search.TimeOrdinal)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 20*time.Second, cfg.Search.NavigationTimeout)
	assert.Equal(t, GarudaPortalURL, cfg.Portal.GarudaURL)

	require.Len(t, cfg.Search.Tiers, 2)
	assert.Equal(t, "rescue", cfg.Search.Tiers[1].Name)
	assert.True(t, cfg.Search.Tiers[1].Visible)
	assert.Equal(t, 5*time.Second, cfg.Search.Tiers[1].PreScanWait)
}

func TestLoadFromFileMissing(t *testing.T) {
	err := loadFromFile(filepath.Join(t.TempDir(), "absent.yaml"), Default())
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Run("defaults without env", func(t *testing.T) {
		t.Setenv("SMUTRACK_CONFIG_FILE", "")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 2, cfg.Search.TimeOrdinal)
	})

	t.Run("env overrides defaults", func(t *testing.T) {
		t.Setenv("SMUTRACK_CONFIG_FILE", "")
		t.Setenv("SMUTRACK_SERVER_PORT", "9200")
		t.Setenv("SMUTRACK_TRACKER_LATEST_EVENT_TIMEOUT", "9s")
		t.Setenv("SMUTRACK_SEARCH_TIME_ORDINAL", "3")
		t.Setenv("SMUTRACK_PUBLISHER_NATS_URL", "nats://127.0.0.1:4222")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9200, cfg.Server.Port)
		assert.Equal(t, 9*time.Second, cfg.Tracker.LatestEventTimeout)
		assert.Equal(t, 3, cfg.Search.TimeOrdinal)
		assert.Equal(t, "nats://127.0.0.1:4222", cfg.Publisher.NATSURL)
		// Untouched fields keep defaults.
		assert.Equal(t, 2*time.Second, cfg.Tracker.PiecesTimeout)
	})

	t.Run("env beats file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9300\n"), 0o600))
		t.Setenv("SMUTRACK_CONFIG_FILE", path)
		t.Setenv("SMUTRACK_SERVER_PORT", "9400")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9400, cfg.Server.Port)
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Setenv("SMUTRACK_CONFIG_FILE", "")
		t.Setenv("SMUTRACK_SEARCH_TIME_ORDINAL", "0")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("unreadable file", func(t *testing.T) {
		t.Setenv("SMUTRACK_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config from file")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
