package feed

import (
	"fmt"

	"github.com/unklstewy/skyframe/pkg/config"
)

// New builds the configured provider adapter. The variant set is closed:
// "radar" (unauthenticated bounds feed) or "opensky" (OAuth2).
func New(cfg config.FeedConfig) (Provider, error) {
	switch cfg.Provider {
	case "radar":
		return NewRadarClient(RadarConfig{
			BaseURL:           cfg.Radar.BaseURL,
			DetailURL:         cfg.Radar.DetailURL,
			RequestsPerSecond: cfg.Radar.RequestsPerSecond,
		}), nil

	case "opensky":
		return NewOpenSkyClient(OpenSkyConfig{
			BaseURL:           cfg.OpenSky.BaseURL,
			TokenURL:          cfg.OpenSky.TokenURL,
			ClientID:          cfg.OpenSky.ClientID,
			ClientSecret:      cfg.OpenSky.ClientSecret,
			RequestsPerSecond: cfg.OpenSky.RequestsPerSecond,
		}), nil

	default:
		return nil, fmt.Errorf("unknown feed provider %q", cfg.Provider)
	}
}
