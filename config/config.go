// Package config reads leadflow's settings from LEADFLOW_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/osr-alliance/backend-lib-leadflow/followup"
	"github.com/osr-alliance/backend-lib-leadflow/mailer"
	"github.com/sirupsen/logrus"
)

const Prefix = "leadflow"

const (
	MailSMTP = "smtp"
	MailSES  = "ses"
	MailLog  = "log"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" default:"host=localhost port=5432 user=postgres dbname=leadflow sslmode=disable"`
	// ReadDatabaseURL points at a replica; empty reads from DatabaseURL
	ReadDatabaseURL string `envconfig:"READ_DATABASE_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	NoCache       bool   `envconfig:"NO_CACHE"`

	ServiceName string        `envconfig:"SERVICE_NAME" default:"leadflow"`
	ListenAddr  string        `envconfig:"LISTEN_ADDR" default:":8000"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	TimeZone           string        `envconfig:"TIME_ZONE" default:"UTC"`
	UpcomingWindowDays int           `envconfig:"UPCOMING_WINDOW_DAYS" default:"4"`
	AssigneeDomain     string        `envconfig:"ASSIGNEE_DOMAIN"`
	Concurrency        int           `envconfig:"REMINDER_CONCURRENCY" default:"4"`
	CronSpec           string        `envconfig:"REMINDER_CRON" default:"0 8 * * *"`
	ReminderTimeout    time.Duration `envconfig:"REMINDER_TIMEOUT" default:"5m"`
	DryRun             bool          `envconfig:"DRY_RUN"`

	MailDriver   string `envconfig:"MAIL_DRIVER" default:"log"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"LeadFlow <reminders@localhost>"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SESRegion    string `envconfig:"SES_REGION" default:"us-east-1"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON"`
	// Debug turns on the storage layer's query logging
	Debug bool `envconfig:"DEBUG"`
	// ValidateQueries EXPLAINs every cached query at startup
	ValidateQueries bool `envconfig:"VALIDATE_QUERIES"`
}

func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process(Prefix, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: LEADFLOW_DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("config: time zone %q: %w", c.TimeZone, err)
	}
	if c.UpcomingWindowDays < 1 {
		return fmt.Errorf("config: upcoming window must be at least 1 day, got %d", c.UpcomingWindowDays)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: reminder concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(c.MailDriver) {
	case MailLog:
	case MailSES:
		if c.SESRegion == "" {
			return fmt.Errorf("config: the ses mail driver needs LEADFLOW_SES_REGION")
		}
	case MailSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("config: the smtp mail driver needs LEADFLOW_SMTP_HOST")
		}
	default:
		return fmt.Errorf("config: unknown mail driver %q", c.MailDriver)
	}
	return nil
}

func (c *Config) ReadURL() string {
	if c.ReadDatabaseURL == "" {
		return c.DatabaseURL
	}
	return c.ReadDatabaseURL
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}

// Policy is the follow-up policy the reminder run and the dashboard share
func (c *Config) Policy() (followup.Policy, error) {
	loc, err := c.Location()
	if err != nil {
		return followup.Policy{}, err
	}
	p := followup.DefaultPolicy()
	p.Location = loc
	p.UpcomingWindowDays = c.UpcomingWindowDays
	return p, nil
}

// Mailer builds the sender MailDriver names. The log driver writes to entry.
func (c *Config) Mailer(entry *logrus.Entry) (mailer.Mailer, error) {
	switch strings.ToLower(c.MailDriver) {
	case MailSMTP:
		return mailer.NewSMTP(mailer.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
		}), nil
	case MailSES:
		m, err := mailer.NewSES(c.SESRegion)
		if err != nil {
			return nil, err
		}
		return m, nil
	case MailLog:
		return mailer.NewLog(entry), nil
	}
	return nil, fmt.Errorf("config: unknown mail driver %q", c.MailDriver)
}

// SetupLogging applies LogLevel & LogJSON to the standard logrus logger
func (c *Config) SetupLogging() error {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	if c.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
