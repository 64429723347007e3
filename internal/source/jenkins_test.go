package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBuildURL_Normalizes(t *testing.T) {
	cases := map[string]string{
		"http://ci.example.com/job/app/12":              "http://ci.example.com/job/app/12/",
		"http://ci.example.com/job/app/12/":             "http://ci.example.com/job/app/12/",
		"http://ci.example.com/job/app/12/console":      "http://ci.example.com/job/app/12/",
		"https://ci.example.com/job/app/12/consoleText": "https://ci.example.com/job/app/12/",
		"https://ci.example.com/job/app/12/consoleFull?x=1#frag": "https://ci.example.com/job/app/12/",
	}
	for in, want := range cases {
		u, err := parseBuildURL(in)
		if err != nil {
			t.Fatalf("parseBuildURL(%q) returned error: %v", in, err)
		}
		if u.String() != want {
			t.Fatalf("parseBuildURL(%q) = %q, want %q", in, u.String(), want)
		}
	}

	for _, bad := range []string{"", "  ", "ftp://ci/job/1", "http:///job/1"} {
		if _, err := parseBuildURL(bad); err == nil {
			t.Fatalf("parseBuildURL(%q) returned nil error, want error", bad)
		}
	}
}

func TestJenkins_FetchesConsoleAndStatus(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	var gotUser, gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotUser, gotToken, _ = r.BasicAuth()

		switch r.URL.Path {
		case "/job/app/7/consoleText":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, "[INFO] one\n[ERROR] two\n")
		case "/job/app/7/consoleFull":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, `<html><body><nav>menu</nav>`+
				`<pre class="console-output">[INFO] one<br>[ERROR] <b>two</b>
<script>ignored()</script></pre></body></html>`)
		case "/job/app/7/api/json":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(BuildStatus{Building: true, Number: 7})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	j, err := NewJenkins(server.URL+"/job/app/7/console", Options{User: "bob", Token: "secret"})
	if err != nil {
		t.Fatalf("NewJenkins returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	content, err := j.Content(ctx)
	if err != nil {
		t.Fatalf("Content returned error: %v", err)
	}
	if content != "[INFO] one\n[ERROR] two\n" {
		t.Fatalf("Content = %q, want console text", content)
	}

	rc, err := j.Stream(ctx)
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	full, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(full) != "[INFO] one\n[ERROR] two\n" {
		t.Fatalf("Stream = %q, want extracted console text", full)
	}

	live, err := j.Live(ctx)
	if err != nil {
		t.Fatalf("Live returned error: %v", err)
	}
	if !live {
		t.Fatalf("Live = false, want true")
	}

	if !strings.HasPrefix(gotUserAgent, "consolelens/") {
		t.Fatalf("User-Agent = %q, want consolelens/*", gotUserAgent)
	}
	if gotUser != "bob" || gotToken != "secret" {
		t.Fatalf("basic auth = %q/%q, want bob/secret", gotUser, gotToken)
	}

	if got, want := j.Fallback(), server.URL+"/job/app/7/consoleText"; got != want {
		t.Fatalf("Fallback = %q, want %q", got, want)
	}
	if got, want := j.Describe(), server.URL+"/job/app/7/"; got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
}

func TestJenkins_StreamPassesPlainText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "<not html>\n")
	}))
	t.Cleanup(server.Close)

	j, err := NewJenkins(server.URL+"/job/x/1", Options{})
	if err != nil {
		t.Fatalf("NewJenkins returned error: %v", err)
	}
	rc, err := j.Stream(context.Background())
	if err != nil {
		t.Fatalf("Stream returned error: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != "<not html>\n" {
		t.Fatalf("Stream = %q, want raw body", body)
	}
}

func TestJenkins_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/job/x/1/api/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/job/x/1/consoleText":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	j, err := NewJenkins(server.URL+"/job/x/1", Options{})
	if err != nil {
		t.Fatalf("NewJenkins returned error: %v", err)
	}

	_, err = j.Status(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Status error = %v, want decode response error", err)
	}

	_, err = j.Content(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500: nope") {
		t.Fatalf("Content error = %v, want status 500 error", err)
	}

	_, err = j.Stream(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 404") {
		t.Fatalf("Stream error = %v, want status 404 error", err)
	}
}

func TestOpen_PicksProvider(t *testing.T) {
	p, err := Open("https://ci.example.com/job/a/1/", Options{})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := p.(*Jenkins); !ok {
		t.Fatalf("Open(url) = %T, want *Jenkins", p)
	}

	p, err = Open("build.log", Options{})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := p.(*File); !ok {
		t.Fatalf("Open(path) = %T, want *File", p)
	}

	if _, err := Open(" ", Options{}); err == nil {
		t.Fatalf("Open(blank) returned nil error, want error")
	}
}
