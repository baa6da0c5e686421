package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"forrest/internal/events"
	"forrest/pkg/logging"
)

const dataPathPrefix = "/services/data/v"

// Request performs an authenticated API request. A 401 answer triggers one
// token refresh and one retry.
func (b *base) Request(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	settings, err := b.settings()
	if err != nil {
		return nil, err
	}

	o := requestOptions{
		method:          strings.ToUpper(settings.Defaults.Method),
		format:          strings.ToLower(settings.Defaults.Format),
		compression:     settings.Defaults.Compression,
		compressionType: strings.ToLower(settings.Defaults.CompressionType),
		header:          http.Header{},
		query:           url.Values{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.method == "" {
		o.method = http.MethodGet
	}

	body, err := encodeBody(o.format, o.body)
	if err != nil {
		return nil, err
	}

	resp, err := b.do(ctx, path, &o, body)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && b.refresh != nil {
		logging.Debug("OAuth", "Request to %s unauthorized, refreshing token", apiErr.URL)
		if rerr := b.refresh(ctx); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		resp, err = b.do(ctx, path, &o, body)
	}
	return resp, err
}

func (b *base) do(ctx context.Context, path string, o *requestOptions, body []byte) (*Response, error) {
	tok, err := b.Token(ctx)
	if err != nil {
		return nil, err
	}
	client, err := b.httpClient()
	if err != nil {
		return nil, err
	}

	target, err := b.resolveURL(tok, path, o.query)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, o.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	if ct := contentType(o.format); ct != "" {
		req.Header.Set("Accept", ct)
		if body != nil {
			req.Header.Set("Content-Type", ct)
		}
	}
	if lang := b.deps.Settings.Language; lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	if o.compression && o.compressionType != "" {
		req.Header.Set("Accept-Encoding", o.compressionType)
	}
	for key, values := range o.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := b.now()
	resp, err := client.Do(req)
	if err != nil {
		b.fire(ctx, events.Response, events.Data{Method: o.method, URL: target, Error: err.Error(), Duration: b.now().Sub(start)})
		return nil, fmt.Errorf("%s %s: %w", o.method, target, err)
	}
	defer resp.Body.Close()

	payload, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", target, err)
	}

	b.fire(ctx, events.Response, events.Data{
		Method:   o.method,
		URL:      target,
		Status:   resp.StatusCode,
		Duration: b.now().Sub(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     o.method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Errors:     parseAPIErrors(payload),
			Body:       payload,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload,
	}, nil
}

// resolveURL turns a resource path into an absolute URL. Absolute URLs are
// used as they are.
func (b *base) resolveURL(tok *Token, path string, query url.Values) (string, error) {
	settings := b.deps.Settings

	target := path
	if u, err := url.Parse(path); err != nil || !u.IsAbs() {
		instance := settings.InstanceURL
		if instance == "" {
			instance = tok.InstanceURL
		}
		if instance == "" {
			return "", ErrNoInstanceURL
		}

		p := "/" + strings.TrimPrefix(path, "/")
		if v := strings.TrimPrefix(settings.Version, "v"); v != "" && !strings.HasPrefix(p, "/services/") {
			p = dataPathPrefix + v + p
		}
		target = strings.TrimSuffix(instance, "/") + p
	}

	if len(query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", target, err)
	}
	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func contentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "xml":
		return "application/xml"
	case "urlencoded":
		return "application/x-www-form-urlencoded"
	default:
		return ""
	}
}

func encodeBody(format string, body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}

	switch format {
	case "json":
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON body: %w", err)
		}
		return raw, nil
	case "xml":
		raw, err := xml.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode XML body: %w", err)
		}
		return raw, nil
	case "urlencoded":
		switch v := body.(type) {
		case url.Values:
			return []byte(v.Encode()), nil
		case map[string]string:
			form := url.Values{}
			for key, value := range v {
				form.Set(key, value)
			}
			return []byte(form.Encode()), nil
		}
		return nil, fmt.Errorf("cannot encode %T as a urlencoded body", body)
	default:
		return nil, fmt.Errorf("cannot encode %T with format %q", body, format)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	return io.ReadAll(r)
}

// parseAPIErrors decodes either the API error list or an OAuth error object.
func parseAPIErrors(body []byte) []APIErrorItem {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	var items []APIErrorItem
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err == nil {
			return items
		}
		return nil
	}

	var oauthErr struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(trimmed, &oauthErr); err == nil && oauthErr.Error != "" {
		return []APIErrorItem{{ErrorCode: oauthErr.Error, Message: oauthErr.Description}}
	}
	return nil
}
