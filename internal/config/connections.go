package config

import (
	"errors"
	"fmt"
	"net/url"
)

// MediaServerType identifies the media server backend
type MediaServerType string

const (
	MediaServerPlex     MediaServerType = "plex"
	MediaServerEmby     MediaServerType = "emby"
	MediaServerJellyfin MediaServerType = "jellyfin"
)

// ArrType identifies a Sonarr/Radarr instance
type ArrType string

const (
	ArrSonarr ArrType = "sonarr"
	ArrRadarr ArrType = "radarr"
)

// MediuxQuality selects which image variant Mediux downloads use
type MediuxQuality string

const (
	MediuxQualityOriginal  MediuxQuality = "original"
	MediuxQualityOptimized MediuxQuality = "optimized"
)

// ConnectionsConfig holds the settings pushed to the backend during onboarding
type ConnectionsConfig struct {
	MediaServer MediaServerConfig `mapstructure:"media_server"`
	Arr         []ArrConfig       `mapstructure:"arr"`
	Mediux      MediuxConfig      `mapstructure:"mediux"`
}

// MediaServerConfig describes a Plex, Emby or Jellyfin server
type MediaServerConfig struct {
	Type      MediaServerType `mapstructure:"type"`
	URL       string          `mapstructure:"url"`
	Token     string          `mapstructure:"token"`   // Plex token OR Emby/Jellyfin API key
	UserID    string          `mapstructure:"user_id"` // Emby/Jellyfin only
	Libraries []string        `mapstructure:"libraries"`
}

// ArrConfig describes one Sonarr or Radarr instance
type ArrConfig struct {
	Type    ArrType `mapstructure:"type"`
	URL     string  `mapstructure:"url"`
	APIKey  string  `mapstructure:"api_key"`
	Library string  `mapstructure:"library"` // Section this instance manages
}

// MediuxConfig holds the art catalog credentials
type MediuxConfig struct {
	Token           string        `mapstructure:"token"`
	DownloadQuality MediuxQuality `mapstructure:"download_quality"`
}

// Validate checks the media server settings for its declared type
func (c MediaServerConfig) Validate() error {
	var errs []error
	switch c.Type {
	case MediaServerPlex:
		if c.UserID != "" {
			errs = append(errs, errors.New("user_id is not used by plex"))
		}
	case MediaServerEmby, MediaServerJellyfin:
		if c.UserID == "" {
			errs = append(errs, fmt.Errorf("user_id is required for %s", c.Type))
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown type %q", c.Type)
	}
	if err := validateURL(c.URL); err != nil {
		errs = append(errs, fmt.Errorf("url: %w", err))
	}
	if c.Token == "" {
		errs = append(errs, errors.New("token is required"))
	}
	if len(c.Libraries) == 0 {
		errs = append(errs, errors.New("at least one library is required"))
	}
	return errors.Join(errs...)
}

// Validate checks one Sonarr/Radarr entry
func (c ArrConfig) Validate() error {
	var errs []error
	switch c.Type {
	case ArrSonarr, ArrRadarr:
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown type %q", c.Type)
	}
	if err := validateURL(c.URL); err != nil {
		errs = append(errs, fmt.Errorf("url: %w", err))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("api_key is required"))
	}
	if c.Library == "" {
		errs = append(errs, errors.New("library is required"))
	}
	return errors.Join(errs...)
}

// Validate checks the Mediux settings
func (c MediuxConfig) Validate() error {
	var errs []error
	if c.Token == "" {
		errs = append(errs, errors.New("token is required"))
	}
	switch c.DownloadQuality {
	case MediuxQualityOriginal, MediuxQualityOptimized:
	default:
		errs = append(errs, fmt.Errorf("unknown download_quality %q", c.DownloadQuality))
	}
	return errors.Join(errs...)
}

// Validate checks every configured connection. Unset sections are skipped.
func (c ConnectionsConfig) Validate() error {
	var errs []error
	if c.MediaServer.Type != "" || c.MediaServer.URL != "" {
		if err := c.MediaServer.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("connections.media_server: %w", err))
		}
	}
	seen := make(map[string]bool)
	for i, arr := range c.Arr {
		if err := arr.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("connections.arr[%d]: %w", i, err))
			continue
		}
		key := string(arr.Type) + ":" + arr.Library
		if seen[key] {
			errs = append(errs, fmt.Errorf("connections.arr[%d]: duplicate %s for library %q", i, arr.Type, arr.Library))
		}
		seen[key] = true
	}
	if c.Mediux.Token != "" {
		if err := c.Mediux.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("connections.mediux: %w", err))
		}
	}
	return errors.Join(errs...)
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
