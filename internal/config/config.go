package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	Twilio  TwilioConfig
	Retell  RetellConfig
	CRM     CRMConfig
	Webhook WebhookConfig
	Auth    AuthConfig
	Redis   RedisConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// FromNumber is the caller id for outbound calls and the inbound number
	// registered against the voice webhook at startup. E.164.
	FromNumber string
}

type RetellConfig struct {
	APIKey  string
	AgentID string

	// APIBaseURL is the registrar REST endpoint.
	APIBaseURL string
	// WSHost is the host the call audio is streamed to once a session exists.
	WSHost string
}

// CRMConfig carries the side-channel notification endpoints.
// Both are optional; an empty URL disables that notification.
type CRMConfig struct {
	VoicemailURL        string
	VoicemailClearedURL string
}

type WebhookConfig struct {
	// BaseURL is the externally reachable base of this process
	// (e.g. an ngrok tunnel in development).
	BaseURL string
	// StatusCallbackURL receives terminal call status callbacks from Twilio.
	StatusCallbackURL string
}

// AuthConfig protects the operator routes. Leaving JWTSecret empty
// disables token auth entirely.
type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// RedisConfig enables the optional outbound-call concurrency cap.
// Leaving Host empty disables Redis and the cap.
type RedisConfig struct {
	Host string
	Port int

	MaxConcurrentCalls int
	SlotTTL            time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))

	c.Retell.APIKey = os.Getenv("RETELL_API_KEY")
	c.Retell.AgentID = strings.TrimSpace(os.Getenv("RETELL_AGENT_ID"))
	c.Retell.APIBaseURL = strings.TrimSpace(os.Getenv("RETELL_API_URL"))
	c.Retell.WSHost = strings.TrimSpace(os.Getenv("RETELL_WS_HOST"))

	c.CRM.VoicemailURL = strings.TrimSpace(os.Getenv("CRM_VOICEMAIL_URL"))
	c.CRM.VoicemailClearedURL = strings.TrimSpace(os.Getenv("CRM_VOICEMAIL_CLEARED_URL"))

	c.Webhook.BaseURL = strings.TrimSpace(os.Getenv("WEBHOOK_BASE_URL"))
	c.Webhook.StatusCallbackURL = strings.TrimSpace(os.Getenv("STATUS_CALLBACK_URL"))

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	// Duration env vars are optional; defaults applied in Validate().
	{
		d, err := optDuration("JWT_ACCESS_TTL")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Auth.AccessTokenTTL = d
	}
	{
		d, err := optDuration("JWT_REFRESH_TTL")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Auth.RefreshTokenTTL = d
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optInt("REDIS_PORT", 6379)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	{
		n, err := optInt("MAX_CONCURRENT_CALLS", 0)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.MaxConcurrentCalls = n
	}
	{
		d, err := optDuration("CALL_SLOT_TTL")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Redis.SlotTTL = d
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}

	if c.Retell.APIKey == "" {
		errs = append(errs, errors.New("RETELL_API_KEY is required"))
	}
	if c.Retell.AgentID == "" {
		errs = append(errs, errors.New("RETELL_AGENT_ID is required"))
	}
	if c.Retell.APIBaseURL == "" {
		c.Retell.APIBaseURL = "https://api.retellai.com"
	}
	if c.Retell.WSHost == "" {
		c.Retell.WSHost = "api.retellai.com"
	}

	if c.Webhook.BaseURL == "" {
		errs = append(errs, errors.New("WEBHOOK_BASE_URL is required"))
	} else if !isValidBaseURL(c.Webhook.BaseURL) {
		errs = append(errs, fmt.Errorf("WEBHOOK_BASE_URL must be an absolute http(s) URL, got %q", c.Webhook.BaseURL))
	}

	for name, raw := range map[string]string{
		"CRM_VOICEMAIL_URL":         c.CRM.VoicemailURL,
		"CRM_VOICEMAIL_CLEARED_URL": c.CRM.VoicemailClearedURL,
	} {
		if raw != "" && !isValidBaseURL(raw) {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw))
		}
	}

	if c.Auth.JWTSecret != "" {
		if c.Auth.AccessTokenTTL <= 0 {
			c.Auth.AccessTokenTTL = 15 * time.Minute
		}
		if c.Auth.RefreshTokenTTL <= 0 {
			c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
		}
		if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
			errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
		}
	}

	if c.Redis.Host != "" {
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
		if c.Redis.MaxConcurrentCalls < 0 {
			errs = append(errs, fmt.Errorf("MAX_CONCURRENT_CALLS must be >= 0, got %d", c.Redis.MaxConcurrentCalls))
		}
		if c.Redis.SlotTTL <= 0 {
			// Slots are released by status callbacks; the TTL only guards
			// against leaks when a callback never arrives.
			c.Redis.SlotTTL = time.Hour
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// VoiceWebhookURL is the externally reachable voice webhook for an agent.
func (c Config) VoiceWebhookURL(agentID string) string {
	return fmt.Sprintf("%s/twilio-voice-webhook/%s", strings.TrimRight(c.Webhook.BaseURL, "/"), agentID)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15m or 1h, got %q", key, v)
	}
	return d, nil
}

func appendParseErr[T any](errs []error, v T, err error) (T, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
