package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the settings a client cannot work without.
//
// Unknown authentication or storage.type values are not reported here; the
// selectors decide how to treat them.
func Validate(cfg ForrestConfig) error {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.Credentials.ConsumerKey) == "" {
		errs.Add("credentials.consumerKey", "is required")
	}
	if strings.TrimSpace(cfg.Credentials.ConsumerSecret) == "" {
		errs.Add("credentials.consumerSecret", "is required")
	}
	if err := validateAbsoluteURL(cfg.Credentials.LoginURL); err != nil {
		errs.Add("credentials.loginURL", err.Error(), cfg.Credentials.LoginURL)
	}

	switch cfg.Authentication {
	case AuthenticationUserPassword:
		if cfg.Credentials.Username == "" {
			errs.Add("credentials.username", "is required for the UserPassword flow")
		}
		if cfg.Credentials.Password == "" {
			errs.Add("credentials.password", "is required for the UserPassword flow")
		}
	default:
		if err := validateAbsoluteURL(cfg.Credentials.CallbackURI); err != nil {
			errs.Add("credentials.callbackURI", err.Error(), cfg.Credentials.CallbackURI)
		}
	}

	if cfg.InstanceURL != "" {
		if err := validateAbsoluteURL(cfg.InstanceURL); err != nil {
			errs.Add("instanceURL", err.Error(), cfg.InstanceURL)
		}
	}

	if cfg.Storage.ExpireIn < 0 {
		errs.Add("storage.expireIn", "must not be negative", cfg.Storage.ExpireIn)
	}
	if cfg.Storage.Type == StorageTypeCache {
		switch cfg.Storage.Cache.Driver {
		case CacheDriverMemory:
			if cfg.Storage.Cache.Size <= 0 {
				errs.Add("storage.cache.size", "must be positive", cfg.Storage.Cache.Size)
			}
		case CacheDriverRedis:
			if cfg.Storage.Cache.RedisURL == "" {
				errs.Add("storage.cache.redisURL", "is required for the redis driver")
			}
		default:
			errs.Add("storage.cache.driver", "must be 'memory' or 'redis'", cfg.Storage.Cache.Driver)
		}
	} else if cfg.Storage.Session.Secret == "" {
		errs.Add("storage.session.secret", "is required for session storage")
	}

	switch strings.ToLower(cfg.Defaults.Format) {
	case "json", "xml", "urlencoded", "none":
	default:
		errs.Add("defaults.format", "must be one of json, xml, urlencoded, none", cfg.Defaults.Format)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateAbsoluteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host")
	}
	return nil
}
