package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/fooddb/internal/config"
	"github.com/JonMunkholm/fooddb/internal/core"
)

type fakeDeriver struct {
	err       error
	got       core.DeriveRequest
	body      string
	requester core.Requester
	calls     []string
}

func (f *fakeDeriver) record(ctx context.Context, call string, req core.DeriveRequest) (*core.DeriveResult, error) {
	f.calls = append(f.calls, call)
	f.got = req
	f.requester = core.RequesterFromContext(ctx)
	data, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &core.DeriveResult{
		RunID:      "run-1",
		State:      core.StateDone,
		DestLocale: req.DestLocale,
		Committed:  call == "derive",
	}, nil
}

func (f *fakeDeriver) Derive(ctx context.Context, req core.DeriveRequest) (*core.DeriveResult, error) {
	return f.record(ctx, "derive", req)
}

func (f *fakeDeriver) Preview(ctx context.Context, req core.DeriveRequest) (*core.DeriveResult, error) {
	return f.record(ctx, "preview", req)
}

func (f *fakeDeriver) ListFormats() []core.Format {
	return []core.Format{{Key: "ndns1", Label: "NDNS"}, {Key: "nz1", Label: "New Zealand"}}
}

func (f *fakeDeriver) LimiterStatus() core.RunLimiterStatus {
	return core.RunLimiterStatus{Active: 1, Available: 1, MaxConcurrent: 2}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20},
		Derive: config.DeriveConfig{DefaultFormat: "ndns1"},
	}
}

func newTestServer(t *testing.T, d Deriver, cfg *config.Config) *Server {
	t.Helper()
	s := NewServer(d, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

// deriveRequest builds a multipart derive request. A nil file omits the part.
func deriveRequest(t *testing.T, path string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "nz.csv")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", "curator-test")
	req.RemoteAddr = "203.0.113.10:5555"
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHandleDerive(t *testing.T) {
	d := &fakeDeriver{}
	s := newTestServer(t, d, testConfig())

	rec := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive",
		map[string]string{"sourceLocale": "en_GB", "format": "nz1"}, []byte("a,b\n1,2\n")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result core.DeriveResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.RunID != "run-1" || !result.Committed {
		t.Errorf("result = %+v", result)
	}

	d.got.Input = nil
	want := core.DeriveRequest{Format: "nz1", SourceLocale: "en_GB", DestLocale: "en_NZ", FileName: "nz.csv"}
	if diff := cmp.Diff(want, d.got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	if d.body != "a,b\n1,2\n" {
		t.Errorf("file body = %q", d.body)
	}
	if diff := cmp.Diff(core.Requester{IPAddress: "203.0.113.10", UserAgent: "curator-test"}, d.requester); diff != "" {
		t.Errorf("requester mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlePreview(t *testing.T) {
	d := &fakeDeriver{}
	s := newTestServer(t, d, testConfig())

	rec := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive/preview",
		map[string]string{"sourceLocale": "en_GB"}, []byte("x\n")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff([]string{"preview"}, d.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if d.got.Format != "" {
		t.Errorf("format = %q, want empty so the service default applies", d.got.Format)
	}
}

func TestHandleDerive_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantErrors []string
		retryable  bool
		retryAfter string
	}{
		{
			name:       "rejected",
			err:        &core.RejectedError{Errors: []string{"Unexpected action in row 2: keep", "Food composition record 9 does not exist in table NZFCT"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "DRV007",
			wantErrors: []string{"Unexpected action in row 2: keep", "Food composition record 9 does not exist in table NZFCT"},
		},
		{
			name:       "busy",
			err:        core.ErrTooManyRuns,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "DRV006",
			retryable:  true,
			retryAfter: "30",
		},
		{
			name:       "code conflict",
			err:        fmt.Errorf("create foods: %w", core.ErrCodeConflict),
			wantStatus: http.StatusConflict,
			wantCode:   "DRV005",
			retryable:  true,
			retryAfter: "1",
		},
		{
			name:       "locale missing",
			err:        fmt.Errorf("destination locale en_XX: %w", core.ErrLocaleNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "DRV001",
		},
		{
			name:       "unknown format",
			err:        fmt.Errorf("%w: xx1", core.ErrUnknownFormat),
			wantStatus: http.StatusBadRequest,
			wantCode:   "DRV002",
		},
		{
			name:       "copy source missing",
			err:        &core.CopySourceMissingError{Codes: []string{"ZZZZ"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "DRV004",
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeDeriver{err: tt.err}, testConfig())
			rec := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive",
				map[string]string{"sourceLocale": "en_GB"}, []byte("x\n")))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
			if resp.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", resp.Retryable, tt.retryable)
			}
			if got := rec.Header().Get("Retry-After"); got != tt.retryAfter {
				t.Errorf("Retry-After = %q, want %q", got, tt.retryAfter)
			}
			if diff := cmp.Diff(tt.wantErrors, resp.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleDerive_BusySetsRetryAfter(t *testing.T) {
	s := newTestServer(t, &fakeDeriver{err: core.ErrTooManyRuns}, testConfig())
	rec := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive",
		map[string]string{"sourceLocale": "en_GB"}, []byte("x\n")))
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestHandleDerive_InvalidRequests(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		fields     map[string]string
		file       []byte
		wantCode   string
		wantErrors []string
	}{
		{
			name:       "missing source",
			path:       "/api/locales/en_NZ/derive",
			file:       []byte("x\n"),
			wantCode:   "REQ003",
			wantErrors: []string{"sourceLocale is required"},
		},
		{
			name:       "same locale",
			path:       "/api/locales/en_NZ/derive",
			fields:     map[string]string{"sourceLocale": "en_NZ"},
			file:       []byte("x\n"),
			wantCode:   "REQ003",
			wantErrors: []string{"sourceLocale must differ from the destination locale"},
		},
		{
			name:       "bad format key",
			path:       "/api/locales/en_NZ/derive",
			fields:     map[string]string{"sourceLocale": "en_GB", "format": "nz-1"},
			file:       []byte("x\n"),
			wantCode:   "REQ003",
			wantErrors: []string{"format is invalid"},
		},
		{
			name:     "missing file",
			path:     "/api/locales/en_NZ/derive",
			fields:   map[string]string{"sourceLocale": "en_GB"},
			wantCode: "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDeriver{}
			s := newTestServer(t, d, testConfig())
			rec := serve(s, deriveRequest(t, tt.path, tt.fields, tt.file))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
			if diff := cmp.Diff(tt.wantErrors, resp.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			if len(d.calls) != 0 {
				t.Errorf("deriver called: %v", d.calls)
			}
		})
	}
}

func TestHandleDerive_FileTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	s := newTestServer(t, &fakeDeriver{}, cfg)

	rec := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive",
		map[string]string{"sourceLocale": "en_GB"}, bytes.Repeat([]byte("a,b\n"), 100)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "FILE003" {
		t.Errorf("code = %s, want FILE003", resp.Code)
	}
}

func TestHandleListFormats(t *testing.T) {
	s := newTestServer(t, &fakeDeriver{}, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/derive/formats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Formats []core.Format `json:"formats"`
		Default string        `json:"default"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Default != "ndns1" || len(body.Formats) != 2 || body.Formats[1].Key != "nz1" {
		t.Errorf("body = %+v", body)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s := newTestServer(t, &fakeDeriver{}, cfg)

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200 without a key", rec.Code)
	}
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/status", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("/api/status status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("/api/status with key status = %d, want 200", rec.Code)
	}
}

func TestDeriveRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, DeriveLimit: 1}
	s := newTestServer(t, &fakeDeriver{}, cfg)

	first := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive/preview", map[string]string{"sourceLocale": "en_GB"}, []byte("x\n")))
	second := serve(s, deriveRequest(t, "/api/locales/en_NZ/derive/preview", map[string]string{"sourceLocale": "en_GB"}, []byte("x\n")))

	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	if resp := decodeError(t, second); resp.Code != "RATE001" {
		t.Errorf("code = %s, want RATE001", resp.Code)
	}

	// Other API routes use the general limit.
	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/derive/formats", nil)); rec.Code != http.StatusOK {
		t.Errorf("formats status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, &fakeDeriver{}, testConfig())
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("%s header missing", h)
		}
	}
}
