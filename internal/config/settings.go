package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"golang.org/x/time/rate"

	"github.com/handiism/sheets-exporter/internal/export"
	"github.com/handiism/sheets-exporter/internal/http"
	ioutils "github.com/handiism/sheets-exporter/internal/io"
	"github.com/handiism/sheets-exporter/internal/model"
	"github.com/handiism/sheets-exporter/internal/sheets"
	"github.com/handiism/sheets-exporter/internal/validate"
)

// ErrConfigParse is returned when a settings file or value cannot be parsed.
var ErrConfigParse = errors.New("failed to parse config")

// maxFileSize caps the settings file read by Load.
const maxFileSize = 1 << 20

// Settings holds all configuration options.
type Settings struct {
	// Endpoint settings
	Host string `yaml:"host"`

	// Output settings
	Output          string   `yaml:"output"` // directory or bucket URL
	FileNamePattern string   `yaml:"file_name_pattern"`
	BatchFormats    []string `yaml:"batch_formats"`

	// Pacing and timeouts
	BatchDelay     string  `yaml:"batch_delay"`     // duration, e.g. "500ms"
	RateLimit      float64 `yaml:"rate_limit"`      // requests per second, 0 = fixed delay
	RequestTimeout string  `yaml:"request_timeout"` // duration, "0" disables

	// Request settings
	UserAgent string `yaml:"user_agent"`

	// Validation
	MinBodyLength    int  `yaml:"min_body_length"`
	StrictValidation bool `yaml:"strict_validation"`

	// Credentials
	Cookie     string            `yaml:"cookie"`      // Cookie header value
	CookieFile string            `yaml:"cookie_file"` // Netscape cookies.txt
	Headers    map[string]string `yaml:"headers"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	var formats []string
	for _, f := range model.BatchFormats() {
		formats = append(formats, string(f))
	}

	return &Settings{
		Host: sheets.DefaultHost,

		Output:          filepath.Join(homeDir, "Downloads"),
		FileNamePattern: model.DefaultFileNamePattern,
		BatchFormats:    formats,

		BatchDelay:     export.DefaultBatchDelay.String(),
		RateLimit:      0,
		RequestTimeout: http.DefaultTimeout.String(),

		UserAgent: http.DefaultUserAgent,

		MinBodyLength:    validate.DefaultMinLength,
		StrictValidation: false,
	}
}

// DefaultPath returns the default settings file location,
// <user config dir>/sheets-exporter/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "sheets-exporter", "config.yaml")
}

// Load reads settings from a YAML file. JSON is accepted as well.
//
// A missing or empty file yields DefaultSettings. Keys present in the file
// override the defaults; unknown keys are rejected.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if len(data) == 0 {
		return settings, nil
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrConfigParse, path, len(data), maxFileSize)
	}

	if err := yaml.UnmarshalWithOptions(data, settings, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that every value can be converted.
func (s *Settings) Validate() error {
	if _, err := s.Formats(); err != nil {
		return fmt.Errorf("%w: batch_formats: %v", ErrConfigParse, err)
	}
	if _, err := parseDuration(s.BatchDelay); err != nil {
		return fmt.Errorf("%w: batch_delay: %v", ErrConfigParse, err)
	}
	if _, err := parseDuration(s.RequestTimeout); err != nil {
		return fmt.Errorf("%w: request_timeout: %v", ErrConfigParse, err)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrConfigParse)
	}
	if _, err := url.Parse(s.Host); err != nil {
		return fmt.Errorf("%w: host: %v", ErrConfigParse, err)
	}
	return nil
}

// Formats returns the parsed batch formats, or model.BatchFormats when none
// are configured.
func (s *Settings) Formats() ([]model.Format, error) {
	formats, err := model.ParseFormats(s.BatchFormats)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return model.BatchFormats(), nil
	}
	return formats, nil
}

// ToClientOptions converts settings to http.Options.
//
// The session combines, in order, the cookie file, the cookie header and
// the extra headers. Cookies from the file are filtered to the host.
func (s *Settings) ToClientOptions() (http.Options, error) {
	timeout, err := parseDuration(s.RequestTimeout)
	if err != nil {
		return http.Options{}, fmt.Errorf("%w: request_timeout: %v", ErrConfigParse, err)
	}

	var session http.MultiSession
	if s.CookieFile != "" {
		path, err := ioutils.ExpandHome(s.CookieFile)
		if err != nil {
			return http.Options{}, err
		}
		cookies, err := http.LoadCookieFile(path, s.hostName())
		if err != nil {
			return http.Options{}, fmt.Errorf("load cookie file: %w", err)
		}
		session = append(session, cookies)
	}
	if s.Cookie != "" {
		session = append(session, http.NewCookieSession(s.Cookie))
	}
	if len(s.Headers) > 0 {
		session = append(session, http.HeaderSession(s.Headers))
	}

	opts := http.Options{
		Timeout:   timeout,
		UserAgent: s.UserAgent,
	}
	if len(session) > 0 {
		opts.Session = session
	}
	return opts, nil
}

// ToPacer converts settings to the batch pacer. A positive RateLimit
// selects a token bucket, otherwise BatchDelay is used as a fixed pause.
func (s *Settings) ToPacer() (export.Pacer, error) {
	if s.RateLimit > 0 {
		return export.RateLimit(rate.Limit(s.RateLimit), 1), nil
	}

	delay, err := parseDuration(s.BatchDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: batch_delay: %v", ErrConfigParse, err)
	}
	return export.FixedDelay(delay), nil
}

// ToValidator converts settings to the body validator.
func (s *Settings) ToValidator() validate.Validator {
	if s.StrictValidation {
		return validate.Strict(s.MinBodyLength)
	}
	return validate.Heuristic{MinLength: s.MinBodyLength}
}

// ToBuilder returns the endpoint builder for Host.
func (s *Settings) ToBuilder() *sheets.Builder {
	host := s.Host
	if host == "" {
		host = sheets.DefaultHost
	}
	return sheets.NewBuilder(host)
}

// ToExporterOptions collects every exporter option derived from settings.
func (s *Settings) ToExporterOptions(onProgress func(export.ProgressEvent)) ([]export.Option, error) {
	pacer, err := s.ToPacer()
	if err != nil {
		return nil, err
	}

	return []export.Option{
		export.WithPacer(pacer),
		export.WithValidator(s.ToValidator()),
		export.WithBuilder(s.ToBuilder()),
		export.WithFileNamePattern(s.FileNamePattern),
		export.WithProgress(onProgress),
	}, nil
}

func (s *Settings) hostName() string {
	u, err := url.Parse(s.Host)
	if err != nil || u.Hostname() == "" {
		return "docs.google.com"
	}
	return u.Hostname()
}

// parseDuration accepts Go duration strings. Empty means zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
