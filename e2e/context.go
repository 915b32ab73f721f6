// Package e2e drives a running saral server through its HTTP API.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// TestContext carries the HTTP client and the last response across steps.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	scenario   string
	lastStatus int
	lastBody   []byte
	lastHeader http.Header
	vars       map[string]string
}

// NewTestContext reads SARAL_BASE_URL and SARAL_ADMIN_TOKEN.
func NewTestContext() *TestContext {
	base := os.Getenv("SARAL_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		baseURL:    strings.TrimRight(base, "/"),
		adminToken: os.Getenv("SARAL_ADMIN_TOKEN"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (tc *TestContext) reset(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	tc.scenario = sc.Id
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeader = nil
	tc.vars = make(map[string]string)
	return ctx, nil
}

// CitizenID scopes a citizen name to the running scenario so velocity
// windows from earlier runs do not leak in.
func (tc *TestContext) CitizenID(name string) string {
	id := name + "_" + strings.ReplaceAll(tc.scenario, "-", "")
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// AdminPOST sends a POST carrying the admin token header.
func (tc *TestContext) AdminPOST(path string) error {
	return tc.do(http.MethodPost, path, nil, map[string]string{"X-Admin-Token": tc.adminToken})
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	return nil
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q", field)
	}
	return v, nil
}

func (tc *TestContext) GetLastResponseStatus() int  { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte { return tc.lastBody }

func (tc *TestContext) GetLastResponseHeader(key string) string {
	if tc.lastHeader == nil {
		return ""
	}
	return tc.lastHeader.Get(key)
}

func (tc *TestContext) Set(key, value string) { tc.vars[key] = value }
func (tc *TestContext) Get(key string) string  { return tc.vars[key] }
