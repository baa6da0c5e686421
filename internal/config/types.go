package config

import "time"

// ForrestConfig is the top-level configuration structure for forrest.
//
// It is read once at startup and handed to the authentication flow as its
// settings bundle. Nothing mutates it after the client has been built.
type ForrestConfig struct {
	// Authentication selects the OAuth flow: "WebServer" or "UserPassword".
	Authentication string `yaml:"authentication"`

	Credentials Credentials `yaml:"credentials"`
	Parameters  Parameters  `yaml:"parameters"`

	// InstanceURL overrides the instance URL returned with the token.
	InstanceURL string `yaml:"instanceURL,omitempty"`

	// AuthRedirect is where the browser lands after a completed web-server callback.
	AuthRedirect string `yaml:"authRedirect"`

	// Version is the API version used to prefix relative resource paths (e.g. "60.0").
	Version string `yaml:"version,omitempty"`

	Defaults RequestDefaults `yaml:"defaults"`
	Storage  StorageConfig   `yaml:"storage"`
	Client   ClientConfig    `yaml:"client"`
	Server   ServerConfig    `yaml:"server"`

	// Language is sent as Accept-Language on API requests.
	Language string `yaml:"language,omitempty"`

	// Strict turns unknown storage.type / authentication values into errors
	// instead of falling back to the defaults.
	Strict bool `yaml:"strict,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Credentials holds the connected-app and user credentials.
type Credentials struct {
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	CallbackURI    string `yaml:"callbackURI"`
	LoginURL       string `yaml:"loginURL"`

	// Username and Password are only used by the UserPassword flow.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Parameters are optional query parameters added to the authorize URL.
type Parameters struct {
	Display   string `yaml:"display,omitempty"`
	Immediate bool   `yaml:"immediate,omitempty"`
	State     string `yaml:"state,omitempty"`
	Scope     string `yaml:"scope,omitempty"`
	Prompt    string `yaml:"prompt,omitempty"`
}

// RequestDefaults are applied to every API request unless overridden per call.
type RequestDefaults struct {
	Method          string `yaml:"method"`
	Format          string `yaml:"format"`
	Compression     bool   `yaml:"compression"`
	CompressionType string `yaml:"compressionType"`
}

// Storage types recognized by storage.type.
const (
	StorageTypeSession = "session"
	StorageTypeCache   = "cache"
)

// Authentication flows recognized by authentication.
const (
	AuthenticationWebServer    = "WebServer"
	AuthenticationUserPassword = "UserPassword"
)

// Cache drivers recognized by storage.cache.driver.
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

// StorageConfig configures where tokens live between requests.
type StorageConfig struct {
	// Type is "session" or "cache".
	Type string `yaml:"type"`

	// Path prefixes every storage key.
	Path string `yaml:"path"`

	// ExpireIn is the cache lifetime in minutes. Ignored when StoreForever is set.
	ExpireIn int `yaml:"expireIn"`

	// StoreForever keeps cached values without expiry.
	StoreForever bool `yaml:"storeForever"`

	// EncryptionKey seals tokens at rest. Empty stores them unsealed.
	EncryptionKey string `yaml:"encryptionKey,omitempty"`

	Session SessionConfig `yaml:"session"`
	Cache   CacheConfig   `yaml:"cache"`
}

// TTL returns the cache lifetime, or zero when values should never expire.
func (s StorageConfig) TTL() time.Duration {
	if s.StoreForever {
		return 0
	}
	return time.Duration(s.ExpireIn) * time.Minute
}

// SessionConfig configures the cookie-backed session store.
type SessionConfig struct {
	Name   string `yaml:"name"`
	Secret string `yaml:"secret"`
	MaxAge int    `yaml:"maxAge"` // seconds
	Secure bool   `yaml:"secure"`
}

// CacheConfig configures the cache backend. LocalSize puts an in-process
// tier of that many entries in front of Redis. Entries there can outlive a
// revoke or rotation done by another process for up to a minute, so it stays
// off unless set.
type CacheConfig struct {
	Driver    string `yaml:"driver"`
	Size      int    `yaml:"size"`
	RedisURL  string `yaml:"redisURL,omitempty"`
	LocalSize int    `yaml:"localSize,omitempty"`
}

// ClientConfig configures the outbound HTTP client.
type ClientConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     int           `yaml:"retryMax"`
	RetryWaitMin time.Duration `yaml:"retryWaitMin"`
	RetryWaitMax time.Duration `yaml:"retryWaitMax"`
}

// ServerConfig configures the HTTP endpoints that drive the web-server flow.
type ServerConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	AuthenticatePath string `yaml:"authenticatePath"`
	CallbackPath     string `yaml:"callbackPath"`
	RevokePath       string `yaml:"revokePath"`
	APIPrefix        string `yaml:"apiPrefix"`
	MetricsPath      string `yaml:"metricsPath"`
}
