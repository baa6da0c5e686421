package config

import "time"

const (
	// DefaultLoginURL is the production login host.
	DefaultLoginURL = "https://login.salesforce.com"

	// DefaultStoragePath prefixes every storage key.
	DefaultStoragePath = "forrest_"

	// DefaultCallbackPath is the default path for OAuth callbacks.
	DefaultCallbackPath = "/callback"
)

// GetDefaultConfig returns the configuration used when no file overrides a value.
func GetDefaultConfig() ForrestConfig {
	return ForrestConfig{
		Authentication: AuthenticationWebServer,
		Credentials: Credentials{
			LoginURL: DefaultLoginURL,
		},
		AuthRedirect: "/",
		Defaults: RequestDefaults{
			Method:          "GET",
			Format:          "json",
			Compression:     false,
			CompressionType: "gzip",
		},
		Storage: StorageConfig{
			Type:     StorageTypeSession,
			Path:     DefaultStoragePath,
			ExpireIn: 60,
			Session: SessionConfig{
				Name:   "forrest",
				MaxAge: 86400,
			},
			Cache: CacheConfig{
				Driver: CacheDriverMemory,
				Size:   10_000,
			},
		},
		Client: ClientConfig{
			Timeout:      20 * time.Second,
			RetryMax:     3,
			RetryWaitMin: time.Second,
			RetryWaitMax: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:             "localhost",
			Port:             8090,
			AuthenticatePath: "/authenticate",
			CallbackPath:     DefaultCallbackPath,
			RevokePath:       "/revoke",
			APIPrefix:        "/api/",
			MetricsPath:      "/metrics",
		},
		Language: "en_US",
		LogLevel: "info",
	}
}

// DefaultConfig returns a fresh copy of the defaults.
func DefaultConfig() *ForrestConfig {
	cfg := GetDefaultConfig()
	return &cfg
}
