package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// baseURL returns the address of the running microblog service.
// MICROBLOG_BASE_URL overrides the local default.
func baseURL() string {
	if v := os.Getenv("MICROBLOG_BASE_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultBaseURL
}

// uniqueEmail generates a unique email address to avoid test collisions.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@test.example.com", prefix, time.Now().UnixNano(), rand.Intn(100000))
}

// skipIfNotRunning performs a quick health check against the service.
// If the service is unreachable, the test is skipped (not failed).
func skipIfNotRunning(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL() + "/health/live")
	if err != nil {
		t.Skipf("service at %s not reachable (Docker not running?): %v", baseURL(), err)
	}
	resp.Body.Close()
}

// httpGet performs an HTTP GET request, optionally authenticated.
func httpGet(t *testing.T, path, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodGet, path, nil, token)
}

// httpPost performs an HTTP POST request with a JSON body.
func httpPost(t *testing.T, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodPost, path, body, token)
}

// httpPatch performs an HTTP PATCH request with a JSON body.
func httpPatch(t *testing.T, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodPatch, path, body, token)
}

// httpPut performs an HTTP PUT request with a JSON body.
func httpPut(t *testing.T, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodPut, path, body, token)
}

// httpDelete performs an HTTP DELETE request.
func httpDelete(t *testing.T, path, token string) (int, map[string]interface{}) {
	t.Helper()
	return doJSONRequest(t, http.MethodDelete, path, nil, token)
}

// doJSONRequest is the internal helper for JSON HTTP requests.
func doJSONRequest(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body failed: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(method, baseURL()+path, bodyReader)
	if err != nil {
		t.Fatalf("creating %s request for %s failed: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(t, resp.Body)
}

// decodeBody reads the response body and attempts to decode it as JSON.
// If the body is empty or not JSON, it returns an empty map.
func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading response body failed: %v", err)
	}
	if len(raw) == 0 {
		return map[string]interface{}{}
	}
	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]interface{}{"raw": string(raw)}
	}
	return result
}

// requireStatus asserts that the HTTP status code matches the expected value.
func requireStatus(t *testing.T, got, want int, body map[string]interface{}) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d; body: %v", want, got, body)
	}
}

// extractField extracts a value from a nested map using a dot-separated path.
// For example, extractField(data, "data.id") navigates data["data"]["id"].
func extractField(data map[string]interface{}, path string) interface{} {
	parts := strings.Split(path, ".")
	var current interface{} = data
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// extractString is a convenience wrapper around extractField that returns a string.
func extractString(t *testing.T, data map[string]interface{}, path string) string {
	t.Helper()
	val := extractField(data, path)
	if val == nil {
		t.Fatalf("expected string at path %q, got nil", path)
	}
	s, ok := val.(string)
	if !ok {
		t.Fatalf("expected string at path %q, got %T: %v", path, val, val)
	}
	return s
}

// signUp registers a fresh account and returns its id and access token.
// The account is unverified; the confirmation code only reaches the mailbox.
func signUp(t *testing.T, prefix string) (id, token, email string) {
	t.Helper()
	email = uniqueEmail(prefix)
	status, data := httpPost(t, "/api/v1/accounts/sign-up", map[string]interface{}{
		"email":    email,
		"password": "TestPass123",
		"name":     "Integration " + prefix,
	}, "")
	requireStatus(t, status, http.StatusCreated, data)

	return extractString(t, data, "data.id"), extractString(t, data, "data.accessToken"), email
}
