package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vanshika/fintrace/ringwatch/internal/config"
	"github.com/vanshika/fintrace/ringwatch/internal/domain"
	"github.com/vanshika/fintrace/ringwatch/internal/graph"
	"github.com/vanshika/fintrace/ringwatch/internal/logging"
	"github.com/vanshika/fintrace/ringwatch/internal/service"
)

const cycleCSV = `transaction_id,sender_id,receiver_id,amount,timestamp
T1,A,B,500,2024-01-01 10:00:00
T2,B,C,490,2024-01-01 11:00:00
T3,C,A,480,2024-01-01 12:00:00
`

type stubAnalyzer struct {
	err   error
	calls int
}

func (s *stubAnalyzer) Analyze(context.Context, []domain.Transaction) (domain.Report, error) {
	s.calls++
	return domain.Report{}, s.err
}

func testLogger() *slog.Logger {
	return logging.Discard()
}

func newTestRouter(analyzer Analyzer, maxBytes int64) http.Handler {
	logger := testLogger()
	return NewRouter(logger, RouterDependencies{
		Analyze: NewAnalyzeHandler(logger, analyzer, maxBytes),
	})
}

func multipartBody(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "ledger.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

type reportBody struct {
	SuspiciousAccounts []domain.SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []struct {
		RingID         string   `json:"ring_id"`
		MemberAccounts []string `json:"member_accounts"`
	} `json:"fraud_rings"`
	Summary domain.Summary `json:"summary"`
}

func TestAnalyze_MultipartUpload(t *testing.T) {
	router := newTestRouter(service.NewAnalysisService(testLogger(), service.Options{}), 1<<20)
	body, contentType := multipartBody(t, "file", cycleCSV)

	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(RunIDHeader) == "" {
		t.Fatalf("expected %s header", RunIDHeader)
	}
	var resp reportBody
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.FraudRings) != 1 || strings.Join(resp.FraudRings[0].MemberAccounts, ",") != "A,B,C" {
		t.Fatalf("unexpected rings %+v", resp.FraudRings)
	}
	if len(resp.SuspiciousAccounts) != 3 || resp.Summary.TotalTransactions != 3 {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestAnalyze_RawCSVBody(t *testing.T) {
	router := newTestRouter(service.NewAnalysisService(testLogger(), service.Options{}), 0)
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(cycleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"ring_id":"RING_001"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAnalyze_ValidationFailure(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newTestRouter(analyzer, 0)
	csv := "transaction_id,sender_id,receiver_id,amount,timestamp\nT1,A,B,-5,2024-01-01 10:00:00\n"
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Detail struct {
			Errors []string `json:"errors"`
			Stats  struct {
				RowsParsed  int `json:"rowsParsed"`
				InvalidRows int `json:"invalidRows"`
			} `json:"stats"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Detail.Errors) != 1 || resp.Detail.Stats.RowsParsed != 1 || resp.Detail.Stats.InvalidRows != 1 {
		t.Fatalf("unexpected detail %+v", resp.Detail)
	}
	if analyzer.calls != 0 {
		t.Fatalf("invalid ledgers must not reach the analyzer")
	}
}

func TestAnalyze_MissingFileField(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{}, 0)
	body, contentType := multipartBody(t, "upload", cycleCSV)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `multipart field \"file\" is required`) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{}, 16)
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(cycleCSV))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyze_EmptyBody(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{}, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyze_AnalyzerFailure(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{err: errors.New("boom")}, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(cycleCSV)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("internal errors must not leak: %s", rec.Body.String())
	}
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(&stubAnalyzer{}, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		client     *graph.MemoryClient
		wantStatus int
		wantBody   string
	}{
		{"no graph configured", nil, http.StatusOK, `"status":"ok"`},
		{"graph reachable", graph.NewMemoryClient(), http.StatusOK, `"status":"ok"`},
		{"graph down", graph.NewMemoryClient().WithConnectivityError(errors.New("refused")), http.StatusServiceUnavailable, `"status":"degraded"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := GraphProbe{}
			if tc.client != nil {
				probe.Client = tc.client
			}
			router := NewRouter(testLogger(), RouterDependencies{Health: probe})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tc.wantStatus || !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	router := NewRouter(testLogger(), RouterDependencies{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metrics must be disabled by default, got %d", rec.Code)
	}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })
	router = NewRouter(testLogger(), RouterDependencies{Metrics: metrics})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected metrics response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(testLogger(), RouterDependencies{
		Analyze:        NewAnalyzeHandler(testLogger(), &stubAnalyzer{}, 0),
		AllowedOrigins: ParseOrigins("http://localhost:5173, "),
	})
	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestParseOrigins(t *testing.T) {
	if got := ParseOrigins("  "); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := ParseOrigins("https://a.example, ,https://b.example")
	if len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestAnalyze_CancelledOrTimedOut(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"cancelled", context.Canceled},
		{"deadline", context.DeadlineExceeded},
		{"wrapped deadline", fmt.Errorf("run detectors: %w", context.DeadlineExceeded)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(cycleCSV))
			rec := httptest.NewRecorder()
			newTestRouter(&stubAnalyzer{err: tc.err}, 1<<20).ServeHTTP(rec, req)

			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_Addr(t *testing.T) {
	cfg := config.HTTPConfig{Host: "::1", Port: 8080, ReadTimeout: time.Second}
	srv := New(testLogger(), cfg, http.NotFoundHandler())
	if got := srv.Addr(); got != "[::1]:8080" {
		t.Fatalf("unexpected addr %q", got)
	}
}
