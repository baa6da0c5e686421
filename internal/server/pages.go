package server

import (
	"html/template"
	"net/http"

	"forrest/pkg/logging"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - Forrest</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: #f4f6f9;
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            color: #181818;
        }
        .container {
            text-align: center;
            padding: 3rem;
            background: #fff;
            border-radius: 12px;
            box-shadow: 0 2px 12px rgba(0, 0, 0, 0.08);
            max-width: 500px;
            margin: 1rem;
        }
        .icon {
            width: 72px;
            height: 72px;
            margin: 0 auto 1.5rem;
            border-radius: 50%;
            display: flex;
            align-items: center;
            justify-content: center;
            font-size: 2.25rem;
            color: #fff;
            background: {{if .Failed}}#c23934{{else}}#04844b{{end}};
        }
        h1 { font-size: 1.5rem; font-weight: 600; margin-bottom: 0.5rem; }
        .message { color: {{if .Failed}}#c23934{{else}}#04844b{{end}}; margin-top: 1rem; }
        p { color: #514f4d; line-height: 1.6; margin-top: 1rem; }
    </style>
</head>
<body>
    <div class="container">
        <div class="icon">{{if .Failed}}&#x2715;{{else}}&#x2713;{{end}}</div>
        <h1>{{.Title}}</h1>
        {{with .Message}}<p class="message">{{.}}</p>{{end}}
        <p>{{.Hint}}</p>
    </div>
</body>
</html>`))

type page struct {
	Title   string
	Message string
	Hint    string
	Failed  bool
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

func renderPage(w http.ResponseWriter, status int, p page) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		logging.Error("Server", err, "Failed to render %q page", p.Title)
	}
}

func renderSuccessPage(w http.ResponseWriter) {
	renderPage(w, http.StatusOK, page{
		Title: "Authentication Successful",
		Hint:  "You can close this window.",
	})
}

func renderErrorPage(w http.ResponseWriter, status int, message string) {
	renderPage(w, status, page{
		Title:   "Authentication Failed",
		Message: message,
		Hint:    "Please start the sign-in again.",
		Failed:  true,
	})
}
