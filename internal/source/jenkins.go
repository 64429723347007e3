package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent = "consolelens/0.1"
	requestTimeout   = 10 * time.Second
)

// consoleSuffixes are page names stripped from a build URL.
var consoleSuffixes = []string{"console", "consoleText", "consoleFull"}

// Jenkins fetches the console of one build over HTTP.
type Jenkins struct {
	build     *url.URL
	http      *http.Client
	stream    *http.Client
	userAgent string
	user      string
	token     string
}

// BuildStatus is the subset of /api/json the viewer cares about.
type BuildStatus struct {
	Building bool   `json:"building"`
	Result   string `json:"result"`
	Number   int    `json:"number"`
	Name     string `json:"fullDisplayName"`
}

// NewJenkins builds a provider for buildURL, which may point at the build
// itself or at one of its console pages.
func NewJenkins(buildURL string, opts Options) (*Jenkins, error) {
	build, err := parseBuildURL(buildURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Jenkins{
		build:     build,
		http:      &http.Client{Timeout: timeout},
		stream:    &http.Client{},
		userAgent: userAgent,
		user:      opts.User,
		token:     opts.Token,
	}, nil
}

// Content fetches the plain console text.
func (j *Jenkins) Content(ctx context.Context) (string, error) {
	if j == nil {
		return "", fmt.Errorf("client is nil")
	}
	resp, err := j.get(ctx, j.http, "consoleText", "text/plain")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// Stream fetches the full console page. HTML pages are reduced to the
// console text; plain text is passed through as it arrives.
func (j *Jenkins) Stream(ctx context.Context) (io.ReadCloser, error) {
	if j == nil {
		return nil, fmt.Errorf("client is nil")
	}
	resp, err := j.get(ctx, j.stream, "consoleFull", "text/html, text/plain")
	if err != nil {
		return nil, err
	}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return resp.Body, nil
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := ExtractConsoleText(resp.Body)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// Status reads the build's JSON API.
func (j *Jenkins) Status(ctx context.Context) (BuildStatus, error) {
	if j == nil {
		return BuildStatus{}, fmt.Errorf("client is nil")
	}
	resp, err := j.get(ctx, j.http, "api/json", "application/json")
	if err != nil {
		return BuildStatus{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var status BuildStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return BuildStatus{}, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

// Live reports whether the build is still running.
func (j *Jenkins) Live(ctx context.Context) (bool, error) {
	status, err := j.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Building, nil
}

// Describe returns the build URL.
func (j *Jenkins) Describe() string {
	return j.build.String()
}

// Fallback returns the consoleText URL.
func (j *Jenkins) Fallback() string {
	return j.resolve("consoleText").String()
}

func (j *Jenkins) resolve(page string) *url.URL {
	return j.build.ResolveReference(&url.URL{Path: page})
}

func (j *Jenkins) get(ctx context.Context, client *http.Client, page, accept string) (*http.Response, error) {
	reqURL := j.resolve(page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", j.userAgent)
	if j.user != "" || j.token != "" {
		req.SetBasicAuth(j.user, j.token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		_ = resp.Body.Close()
		msg := strings.TrimSpace(string(bytes.ToValidUTF8(snippet, nil)))
		if msg == "" {
			return nil, fmt.Errorf("%s returned status %d", page, resp.StatusCode)
		}
		return nil, fmt.Errorf("%s returned status %d: %s", page, resp.StatusCode, firstLine(msg))
	}
	return resp, nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func parseBuildURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("build url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse build url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse build url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse build url %q: missing host", raw)
	}
	path := strings.TrimRight(u.Path, "/")
	for _, suffix := range consoleSuffixes {
		if strings.HasSuffix(path, "/"+suffix) {
			path = strings.TrimSuffix(path, "/"+suffix)
			break
		}
	}
	u.Path = path + "/"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
