// Package forrest assembles an authenticated API client from configuration.
//
// Two decisions are made, both from plain configuration strings:
//
//   - storage.type selects where tokens live: "session" (the visitor's HTTP
//     session) or "cache" (a shared cache). Anything else falls back to
//     session storage.
//   - authentication selects the OAuth flow: "WebServer" or "UserPassword".
//     Anything else falls back to WebServer.
//
// A fallback is logged at WARN. With strict: true in the configuration the
// fallback becomes an *UnknownValueError returned from Provider.Client.
//
// The Provider builds the client once and returns the same instance for the
// lifetime of the process. It is passed explicitly to whoever needs it; there
// is no package-level instance.
//
//	provider := forrest.NewProvider(cfg, forrest.Host{
//		HTTPClient: httpclient.New(cfg.Client),
//		Sessions:   sessions.Source(),
//		Events:     dispatcher,
//		Input:      web.RequestInput{},
//		Redirect:   web.ResponseRedirector{},
//	})
//	client, err := provider.Client()
package forrest
