package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// chdirTemp changes into a temp directory for the duration of the test.
// Equivalent to t.Chdir(t.TempDir()), which requires Go 1.24.
func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestClient_EditSendsChanges(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PATCH /devices/7": `{"status":"updated","rows":2}`,
	})

	client := ts.client()
	resp, err := client.patch(ctx, "/devices/7", map[string]string{"status": "repaired"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Rows int `json:"rows"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.Rows != 2 {
		t.Errorf("rows = %d, want 2", result.Rows)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["status"] != "repaired" {
		t.Errorf("body.status = %q, want repaired", body["status"])
	}
}

func TestClient_ErrorEnvelopeSurfaced(t *testing.T) {
	ts := newTestServer(t, nil)

	client := ts.client()
	resp, err := client.get(ctx, "/devices/missing")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to mention 404", err.Error())
	}
}

func TestClient_UploadSendsMultipart(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /import": `{"status":"imported","rows":3}`,
	})

	path := filepath.Join(t.TempDir(), "upload.csv")
	if err := os.WriteFile(path, []byte("id,status\n1,faulty\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := ts.client()
	resp, err := client.upload(ctx, "/import", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Rows int `json:"rows"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.Rows != 3 {
		t.Errorf("rows = %d, want 3", result.Rows)
	}

	r := ts.requests[0]
	if !strings.Contains(r.Body, "upload.csv") {
		t.Errorf("multipart body missing filename, got %q", r.Body)
	}
	if !strings.Contains(r.Body, "id,status") {
		t.Errorf("multipart body missing file content, got %q", r.Body)
	}
}

func TestEditCommand_RequiresSet(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"edit", "7"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing --set")
	}
	if !strings.Contains(err.Error(), "--set") {
		t.Errorf("error = %q, want it to mention --set", err.Error())
	}
}

func TestConfigShowCommand(t *testing.T) {
	t.Setenv("DEVBOARD_ADMIN_TOKEN", "cli-admin-token")
	chdirTemp(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "show"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if result := colorize(colorGreen, "hello"); strings.Contains(result, "\033") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	if result := colorize(colorGreen, "hello"); !strings.Contains(result, "\033") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}
