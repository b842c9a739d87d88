// Package testutil provides HTTP testing helpers for the khazana server.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"khazana/internal/config"
)

// TestServer wraps httptest.Server with convenience methods
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	t       *testing.T
}

// TestConfig returns an in-memory configuration suitable for testing
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ListenAddr:      ":0",
		Debug:           true,
		LogLevel:        "error",
		ShutdownTimeout: time.Second,
		Backend:         config.BackendMemory,
		DataDirectory:   dir,
		SQLitePath:      dir + "/khazana.db",
		Currency:        "INR",
	}
}

// NewTestServer starts a test server for router. It is closed with the test.
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		t:       t,
	}
}

// Do performs a request with an optional body
func (ts *TestServer) Do(method, path, contentType string, body io.Reader) *http.Response {
	ts.t.Helper()

	req, err := http.NewRequest(method, ts.BaseURL+path, body)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// DoJSON performs a request with v encoded as the JSON body
func (ts *TestServer) DoJSON(method, path string, v any) *http.Response {
	ts.t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		ts.t.Fatalf("encode body: %v", err)
	}
	return ts.Do(method, path, "application/json", bytes.NewReader(data))
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodGet, path, "", nil)
}

// GETWithQuery performs a GET request with query parameters
func (ts *TestServer) GETWithQuery(path string, query map[string]string) *http.Response {
	ts.t.Helper()

	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	return ts.GET(path)
}

// POST performs a POST request to the given path
func (ts *TestServer) POST(path string, contentType string, body io.Reader) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodPost, path, contentType, body)
}

// POSTJSON performs a POST request with a JSON body
func (ts *TestServer) POSTJSON(path string, v any) *http.Response {
	ts.t.Helper()
	return ts.DoJSON(http.MethodPost, path, v)
}

// PUTJSON performs a PUT request with a JSON body
func (ts *TestServer) PUTJSON(path string, v any) *http.Response {
	ts.t.Helper()
	return ts.DoJSON(http.MethodPut, path, v)
}

// DELETE performs a DELETE request to the given path
func (ts *TestServer) DELETE(path string) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodDelete, path, "", nil)
}

// Upload posts content as the multipart field "file" named filename
func (ts *TestServer) Upload(path, filename string, content []byte) *http.Response {
	ts.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		ts.t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	if err := mw.Close(); err != nil {
		ts.t.Fatalf("close multipart writer: %v", err)
	}
	return ts.POST(path, mw.FormDataContentType(), &buf)
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// ReadBody reads and returns the response body as a string
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}
