// Package events carries the notifications an authentication flow fires
// while it works: every API response, a completed authentication, a token
// refresh or revocation, and the redirect to the authorization page.
//
// A Dispatcher renders a human-readable message for each event from a
// text/template (sprig functions available), logs it, and hands the event to
// every listener registered for its name. Listeners run synchronously on the
// firing goroutine; a panicking listener is not recovered.
//
// Usage:
//
//	d := events.NewDispatcher()
//	d.Listen(events.Authenticated, func(ctx context.Context, e events.Event) {
//		log.Println(e.Message)
//	})
//	d.Fire(ctx, events.Authenticated, events.Data{Flow: "WebServer"})
//
// A Recorder keeps the most recent events in memory so they can be listed
// over HTTP.
package events
