package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/pawguardian/pkg/scenario"
)

const (
	DefaultConfigPath = "/etc/pawguardian"
	ConfigFileName    = "pawguardian.yml"

	DefaultProjectID = "sentientcarguard"
	DefaultLocation  = "asia-northeast1"
	DefaultModelID   = "gemini-2.5-flash"
	DefaultMusicURL  = "https://cdn.pixabay.com/audio/2024/11/25/audio_d3038b75e1.mp3"
)

// Secrets sources
const (
	SecretsSourceSecretManager = "secretmanager"
	SecretsSourceEnv           = "env"
)

// ValidSecretsSources is the list of accepted secrets_source values
var ValidSecretsSources = []string{SecretsSourceSecretManager, SecretsSourceEnv}

// Config holds all PawGuardian configuration settings
type Config struct {
	// ProjectID is the Google Cloud project hosting Vertex AI and Secret Manager
	ProjectID string `yaml:"project_id" json:"project_id"`

	// Location is the Vertex AI region
	Location string `yaml:"location" json:"location"`

	// ModelID is the Gemini model used by both agents
	ModelID string `yaml:"model_id" json:"model_id"`

	// ServiceAccountEmail signs video URLs. Empty means auto-detect.
	ServiceAccountEmail string `yaml:"service_account_email" json:"service_account_email"`

	// SecretsSource selects where Twilio credentials come from
	SecretsSource string `yaml:"secrets_source" json:"secrets_source"`

	// SignedURLTTL is the lifetime of signed video URLs in seconds
	SignedURLTTL int `yaml:"signed_url_ttl" json:"signed_url_ttl"`

	// MusicURL is the track handed to the dashboard when music is played
	MusicURL string `yaml:"music_url" json:"music_url"`

	// EnableCORS allows cross-origin requests
	EnableCORS bool `yaml:"enable_cors" json:"enable_cors"`

	// EnableXSRFProtection rejects cross-site state changing requests
	EnableXSRFProtection bool `yaml:"enable_xsrf_protection" json:"enable_xsrf_protection"`

	// APITokenKey is the HMAC key for bearer tokens. Empty leaves the API open.
	APITokenKey string `yaml:"api_token_key" json:"-"`

	// Scenarios replaces the built-in surveillance catalog
	Scenarios []scenario.Scenario `yaml:"scenarios" json:"scenarios,omitempty"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// current is the process-wide configuration shared by the server and the
// config watcher
var (
	current    atomic.Pointer[Config]
	dotenvOnce sync.Once
)

// Get returns the process configuration, loading it on first use. A
// configuration that fails to load falls back to the defaults.
func Get() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: using defaults: %v\n", err)
		cfg = newDefault()
	}
	// A concurrent first Get may have won; keep its value.
	if current.CompareAndSwap(nil, cfg) {
		return cfg
	}
	return current.Load()
}

// Reload re-reads the file and environment and replaces what Get returns.
// On error the previous configuration stays in place.
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	current.Store(cfg)
	return nil
}

func newDefault() *Config {
	return &Config{
		ProjectID:     DefaultProjectID,
		Location:      DefaultLocation,
		ModelID:       DefaultModelID,
		SecretsSource: SecretsSourceSecretManager,
		SignedURLTTL:  3600,
		MusicURL:      DefaultMusicURL,
		sources:       make(map[string]string),
	}
}

// LoadDotEnv reads ./.env once per process. Variables already present in the
// environment win over the file.
func LoadDotEnv() {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "config: ignoring .env: %v\n", err)
		}
	})
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	LoadDotEnv()

	config := newDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	config.configFilePath = FilePath()

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

// FilePath returns the config file location honouring PAWGUARDIAN_CONFIG_PATH
func FilePath() string {
	configPath := os.Getenv("PAWGUARDIAN_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return filepath.Join(configPath, ConfigFileName)
}

func attributeNames() []string {
	return []string{
		"project_id", "location", "model_id", "service_account_email",
		"secrets_source", "signed_url_ttl", "music_url", "enable_cors",
		"enable_xsrf_protection", "api_token_key", "scenarios",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	setString := func(name string, dst *string, val string) {
		if val != "" {
			*dst = val
			c.sources[name] = "file"
		}
	}
	setString("project_id", &c.ProjectID, file.ProjectID)
	setString("location", &c.Location, file.Location)
	setString("model_id", &c.ModelID, file.ModelID)
	setString("service_account_email", &c.ServiceAccountEmail, file.ServiceAccountEmail)
	setString("secrets_source", &c.SecretsSource, file.SecretsSource)
	setString("music_url", &c.MusicURL, file.MusicURL)
	setString("api_token_key", &c.APITokenKey, file.APITokenKey)

	if file.SignedURLTTL != 0 {
		c.SignedURLTTL = file.SignedURLTTL
		c.sources["signed_url_ttl"] = "file"
	}
	if file.EnableCORS {
		c.EnableCORS = true
		c.sources["enable_cors"] = "file"
	}
	if file.EnableXSRFProtection {
		c.EnableXSRFProtection = true
		c.sources["enable_xsrf_protection"] = "file"
	}
	if len(file.Scenarios) > 0 {
		c.Scenarios = file.Scenarios
		c.sources["scenarios"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	setString := func(name, env string, dst *string) {
		if val := os.Getenv(env); val != "" {
			*dst = val
			c.sources[name] = "environment"
		}
	}
	setBool := func(name, env string, dst *bool) {
		if val := os.Getenv(env); val != "" {
			*dst = val == "true" || val == "1"
			c.sources[name] = "environment"
		}
	}

	setString("project_id", "GOOGLE_CLOUD_PROJECT", &c.ProjectID)
	setString("location", "PAWGUARDIAN_LOCATION", &c.Location)
	setString("model_id", "PAWGUARDIAN_MODEL_ID", &c.ModelID)
	setString("service_account_email", "SERVICE_ACCOUNT_EMAIL", &c.ServiceAccountEmail)
	setString("secrets_source", "PAWGUARDIAN_SECRETS_SOURCE", &c.SecretsSource)
	setString("music_url", "PAWGUARDIAN_MUSIC_URL", &c.MusicURL)
	setString("api_token_key", "PAWGUARDIAN_API_TOKEN_KEY", &c.APITokenKey)
	setBool("enable_cors", "PAWGUARDIAN_ENABLE_CORS", &c.EnableCORS)
	setBool("enable_xsrf_protection", "PAWGUARDIAN_ENABLE_XSRF_PROTECTION", &c.EnableXSRFProtection)

	if val := os.Getenv("PAWGUARDIAN_SIGNED_URL_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.SignedURLTTL = i
			c.sources["signed_url_ttl"] = "environment"
		}
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// SignedURLLifetime returns the signed URL TTL as a duration
func (c *Config) SignedURLLifetime() time.Duration {
	return time.Duration(c.SignedURLTTL) * time.Second
}

// APIAuthEnabled reports whether bearer tokens are required
func (c *Config) APIAuthEnabled() bool {
	return c.APITokenKey != ""
}

// Catalog returns the configured scenarios, or the built-in ones
func (c *Config) Catalog() (*scenario.Catalog, error) {
	if len(c.Scenarios) == 0 {
		return scenario.NewCatalog(scenario.Builtin())
	}
	return scenario.NewCatalog(c.Scenarios)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if c.Location == "" {
		return errors.New("location is required")
	}
	if c.ModelID == "" {
		return errors.New("model_id is required")
	}

	valid := false
	for _, s := range ValidSecretsSources {
		if c.SecretsSource == s {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid secrets_source: %s", c.SecretsSource)
	}

	if c.SignedURLTTL <= 0 {
		return fmt.Errorf("invalid signed_url_ttl: %d", c.SignedURLTTL)
	}

	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("invalid scenarios: %w", err)
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	tokenKey := ""
	if c.APITokenKey != "" {
		tokenKey = "(redacted)"
	}
	scenarios := "(builtin)"
	if len(c.Scenarios) > 0 {
		keys := make([]string, len(c.Scenarios))
		for i, s := range c.Scenarios {
			keys[i] = s.Key
		}
		scenarios = strings.Join(keys, ",")
	}
	return []Attribute{
		{Name: "project_id", Value: c.ProjectID, Source: c.Source("project_id")},
		{Name: "location", Value: c.Location, Source: c.Source("location")},
		{Name: "model_id", Value: c.ModelID, Source: c.Source("model_id")},
		{Name: "service_account_email", Value: c.ServiceAccountEmail, Source: c.Source("service_account_email")},
		{Name: "secrets_source", Value: c.SecretsSource, Source: c.Source("secrets_source")},
		{Name: "signed_url_ttl", Value: strconv.Itoa(c.SignedURLTTL), Source: c.Source("signed_url_ttl")},
		{Name: "music_url", Value: c.MusicURL, Source: c.Source("music_url")},
		{Name: "enable_cors", Value: strconv.FormatBool(c.EnableCORS), Source: c.Source("enable_cors")},
		{Name: "enable_xsrf_protection", Value: strconv.FormatBool(c.EnableXSRFProtection), Source: c.Source("enable_xsrf_protection")},
		{Name: "api_token_key", Value: tokenKey, Source: c.Source("api_token_key")},
		{Name: "scenarios", Value: scenarios, Source: c.Source("scenarios")},
	}
}

// FormatText renders the attributes as an aligned table
func (c *Config) FormatText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Config file: %s\n\n", c.configFilePath)

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tSOURCE")
	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", attr.Name, value, attr.Source)
	}
	_ = tw.Flush()
	return sb.String()
}

// FormatJSON renders the config file path and the attributes
func (c *Config) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(struct {
		ConfigFile string      `json:"config_file"`
		Attributes []Attribute `json:"attributes"`
	}{c.configFilePath, c.Attributes()}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
