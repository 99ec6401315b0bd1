// Package config loads and validates the settings for a citycast-digest run.
//
// Settings come from, in increasing priority: built-in defaults, an optional YAML
// file, a .env file in the working directory, and the process environment. Inside
// AWS Lambda the SMTP password and SMS address are read from SSM Parameter Store.
// Validate is called once at startup; nothing else in the program reads the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/citycast-digest/internal/logger"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

const (
	DefaultEventsURL     = "https://dc.citycast.fm/events"
	DefaultTimeout       = 30 * time.Second
	DefaultDataDir       = "~/.local/share/citycast-digest"
	DefaultSMTPPort      = 587
	DefaultChunkSize     = 160
	DefaultSubjectPrefix = "DC Events"
	DefaultTimezone      = "America/New_York"
	DefaultLogLevel      = "INFO"
)

// Source says where the events page markup comes from
type Source struct {
	URL     string        `yaml:"url"`
	File    string        `yaml:"file"` // Local copy of the page; wins over URL when set
	Timeout time.Duration `yaml:"timeout"`
}

// Storage configures where parsed events are saved
type Storage struct {
	DataDir string `yaml:"data_dir"`
}

// SMTP is the outbound mail relay
type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"` // Sender address, also used to log in
	Password string `yaml:"password"`
}

// SMS is the email-to-SMS gateway recipient
type SMS struct {
	To            string `yaml:"to"` // e.g. 2025550123@tmomail.net
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Digest controls message rendering
type Digest struct {
	ChunkSize int `yaml:"chunk_size"`
}

// Config is the full run configuration
type Config struct {
	Source      Source  `yaml:"source"`
	Storage     Storage `yaml:"storage"`
	SMTP        SMTP    `yaml:"smtp"`
	SMS         SMS     `yaml:"sms"`
	Digest      Digest  `yaml:"digest"`
	LogLevel    string  `yaml:"log_level"`
	Timezone    string  `yaml:"timezone"`
	MetricsFile string  `yaml:"metrics_file"`
}

// Default returns a Config with every default filled in
func Default() *Config {
	return &Config{
		Source: Source{
			URL:     DefaultEventsURL,
			Timeout: DefaultTimeout,
		},
		Storage: Storage{
			DataDir: DefaultDataDir,
		},
		SMTP: SMTP{
			Port: DefaultSMTPPort,
		},
		SMS: SMS{
			SubjectPrefix: DefaultSubjectPrefix,
		},
		Digest: Digest{
			ChunkSize: DefaultChunkSize,
		},
		LogLevel: DefaultLogLevel,
		Timezone: DefaultTimezone,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is
// empty), a .env file if present, and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	} else if err != nil {
		logger.Debug("No .env file found", nil)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// applyEnv overrides fields from environment variables.
// The mail variable names match the .env files the job has always used.
func (c *Config) applyEnv() error {
	setString(&c.Source.URL, "EVENTS_URL")
	setString(&c.Source.File, "EVENTS_FILE")
	setString(&c.Storage.DataDir, "DATA_DIR")
	setString(&c.SMTP.Host, "SMTP_SERVER")
	setString(&c.SMTP.Username, "EMAIL_SENDER")
	setString(&c.SMTP.Password, "EMAIL_PASSWORD")
	setString(&c.SMS.To, "TO_SMS")
	setString(&c.SMS.SubjectPrefix, "SMS_SUBJECT_PREFIX")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.MetricsFile, "METRICS_FILE")

	if v := getEnv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SMTP_PORT %q is not a number", ErrInvalid, v)
		}
		c.SMTP.Port = port
	}

	if v := getEnv("SMS_CHUNK_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SMS_CHUNK_SIZE %q is not a number", ErrInvalid, v)
		}
		c.Digest.ChunkSize = size
	}

	return nil
}

// applyDefaults fills fields a YAML file may have zeroed
func (c *Config) applyDefaults() {
	if c.Source.URL == "" {
		c.Source.URL = DefaultEventsURL
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultTimeout
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.SMS.SubjectPrefix == "" {
		c.SMS.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Digest.ChunkSize == 0 {
		c.Digest.ChunkSize = DefaultChunkSize
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

// Validate checks the configuration once at startup. Mail settings are only
// required when the run will deliver the digest.
func (c *Config) Validate(requireDelivery bool) error {
	fields := []*validation.FieldRules{
		validation.Field(&c.Source),
		validation.Field(&c.Digest),
		validation.Field(&c.LogLevel, validation.By(validLogLevel)),
		validation.Field(&c.Timezone, validation.Required, validation.By(validTimezone)),
	}
	if requireDelivery {
		fields = append(fields,
			validation.Field(&c.SMTP),
			validation.Field(&c.SMS),
		)
	}

	if err := validation.ValidateStruct(c, fields...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate implements validation.Validatable
func (s Source) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL, validation.When(s.File == "", validation.Required), is.URL),
		validation.Field(&s.Timeout, validation.Min(time.Second)),
	)
}

// Validate implements validation.Validatable
func (s SMTP) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, validation.Required, is.Host),
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.Username, validation.Required, is.EmailFormat),
		validation.Field(&s.Password, validation.Required),
	)
}

// Validate implements validation.Validatable
func (s SMS) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.To, validation.Required, is.EmailFormat),
		validation.Field(&s.SubjectPrefix, validation.Length(0, 40)),
	)
}

// Validate implements validation.Validatable
func (d Digest) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ChunkSize, validation.Required, validation.Min(20), validation.Max(1600)),
	)
}

func validLogLevel(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := logger.ParseLevel(s)
	return err
}

func validTimezone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	return nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level resolves LogLevel, falling back to INFO
func (c *Config) Level() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

// SMTPAddr returns host:port of the mail relay
func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", c.SMTP.Host, c.SMTP.Port)
}

// IsLambda reports whether the process runs inside AWS Lambda
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

func setString(dst *string, key string) {
	if v := getEnv(key); v != "" {
		*dst = v
	}
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// getEnvOrDefault returns the trimmed value of key, or defaultValue when unset
func getEnvOrDefault(key, defaultValue string) string {
	if value := getEnv(key); value != "" {
		return value
	}
	return defaultValue
}
