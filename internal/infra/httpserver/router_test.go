package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/middleware"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeAnalyzer struct {
	mu     sync.Mutex
	got    []domain.Submission
	report domain.Report
}

func (f *fakeAnalyzer) Analyze(_ context.Context, sub domain.Submission) domain.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, sub)
	rep := f.report
	if rep.Language == "" {
		rep.Language = domain.LangPython
	}
	return rep
}

func (f *fakeAnalyzer) last() domain.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got[len(f.got)-1]
}

var pickleReport = domain.Report{
	Language: domain.LangPython,
	Findings: []domain.Finding{{
		Type:        domain.TypeUnsafeDeserialization,
		Code:        "pickle.loads(user_input)",
		Description: "Deserializing untrusted data can execute arbitrary code.",
		Solution:    "Use a data-only format such as JSON.",
		Severity:    domain.SeverityMedium,
		Tool:        "sast-python",
		Line:        2,
	}},
	Analyzers: []domain.AnalyzerStatus{
		{Name: "sast-python", Kind: domain.KindSecurity, Status: domain.RunOK},
	},
}

func newTestRouter(svc Analyzer, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = discard
	}
	return NewRouter(svc, opts)
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze-code", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, h http.Handler, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAnalyzeCode(t *testing.T) {
	svc := &fakeAnalyzer{report: pickleReport}
	h := newTestRouter(svc, Options{})

	rec := postJSON(t, h, `{"code":"import pickle\npickle.loads(user_input)","language":"py"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.LangPython, resp.Language)
	require.Len(t, resp.Vulnerabilities, 1)
	assert.Equal(t, "pickle.loads(user_input)", resp.Vulnerabilities[0].Code)
	assert.Equal(t, "sast-python", resp.Vulnerabilities[0].Tool)
	assert.Contains(t, resp.BanditAnalysis, "line 2: [medium] unsafe deserialization")
	assert.Empty(t, resp.PylintAnalysis)
	assert.Empty(t, resp.FileName)

	sub := svc.last()
	assert.Equal(t, "import pickle\npickle.loads(user_input)", sub.Content)
	assert.Equal(t, domain.LangPython, sub.DeclaredLanguage)
}

func TestAnalyzeCodeEmptyReportShape(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{report: domain.Report{Language: domain.LangUnknown}}, Options{})

	rec := postJSON(t, h, `{"code":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unknown", body["language"])
	assert.Equal(t, []any{}, body["vulnerabilities"])
	assert.Equal(t, []any{}, body["analyzers"])
	assert.NotContains(t, body, "bandit_analysis")
	assert.NotContains(t, body, "pylint_analysis")
}

func TestAnalyzeCodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		substr string
	}{
		{"empty code", `{"code":""}`, http.StatusBadRequest, "code is required"},
		{"missing code", `{}`, http.StatusBadRequest, "code is required"},
		{"bad json", `{"code":`, http.StatusBadRequest, "malformed submission"},
		{"bad language", `{"code":"x","language":"cobol"}`, http.StatusBadRequest, "not a supported language"},
		{"path filename", `{"code":"x","filename":"../etc/passwd"}`, http.StatusBadRequest, "plain file name"},
		{"too large", `{"code":"` + strings.Repeat("a", 65) + `"}`, http.StatusRequestEntityTooLarge, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAnalyzer{}
			h := newTestRouter(svc, Options{MaxCodeBytes: 64})
			rec := postJSON(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.substr)
			assert.Empty(t, svc.got)
		})
	}
}

func TestAnalyzeCodeBodyLimit(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, Options{MaxCodeBytes: 16})
	rec := postJSON(t, h, `{"code":"`+strings.Repeat("a", 2*16+multipartSlack+10)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload(t *testing.T) {
	svc := &fakeAnalyzer{report: pickleReport}
	h := newTestRouter(svc, Options{})

	rec := upload(t, h, "file", "job.py", []byte("import pickle\npickle.loads(user_input)"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "job.py", body["fileName"])
	assert.Equal(t, "file analyzed", body["message"])
	assert.Equal(t, "python", body["language"])
	assert.Len(t, body["vulnerabilities"], 1)

	sub := svc.last()
	assert.Equal(t, "job.py", sub.Filename)
	assert.Equal(t, "import pickle\npickle.loads(user_input)", sub.Content)
}

func TestUploadAllowsTextAndKnownExtensions(t *testing.T) {
	for _, name := range []string{"notes.txt", "main.go", "App.java", "util.hpp", "index.mjs", "x.C"} {
		t.Run(name, func(t *testing.T) {
			rec := upload(t, newTestRouter(&fakeAnalyzer{}, Options{}), "file", name, []byte("x = 1\n"))
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  []byte
		status   int
		substr   string
	}{
		{"no file part", "", "", nil, http.StatusBadRequest, "no file provided"},
		{"empty filename", "file", "", []byte("x"), http.StatusBadRequest, "no file"},
		{"wrong field", "upload", "a.py", []byte("x"), http.StatusBadRequest, "no file provided"},
		{"disallowed extension", "file", "run.exe", []byte("MZ"), http.StatusBadRequest, "file type not allowed"},
		{"no extension", "file", "Makefile", []byte("all:"), http.StatusBadRequest, "file type not allowed"},
		{"empty file", "file", "a.py", []byte{}, http.StatusBadRequest, "file is empty"},
		{"binary", "file", "a.py", []byte{0xff, 0xfe, 0x00}, http.StatusBadRequest, "UTF-8"},
		{"too large", "file", "a.py", bytes.Repeat([]byte("a"), 65), http.StatusRequestEntityTooLarge, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAnalyzer{}
			rec := upload(t, newTestRouter(svc, Options{MaxCodeBytes: 64}), tt.field, tt.filename, tt.content)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, decode(t, rec)["error"], tt.substr)
			assert.Empty(t, svc.got)
		})
	}
}

func TestUploadNotMultipart(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, Options{})
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("code"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWrapInternalError(t *testing.T) {
	r := &Router{log: discard}
	h := r.wrap(func(http.ResponseWriter, *http.Request) error { return errors.New("disk on fire") })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/analyze-code", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}

func TestProbes(t *testing.T) {
	notReady := middleware.CheckFunc(func(context.Context) error { return errors.New("warming up") })
	h := newTestRouter(&fakeAnalyzer{}, Options{Ready: notReady})

	for path, want := range map[string]int{
		"/health":  http.StatusOK,
		"/healthz": http.StatusOK,
		"/readyz":  http.StatusServiceUnavailable,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := middleware.NewMetrics()
	h := newTestRouter(&fakeAnalyzer{report: pickleReport}, Options{Metrics: m})

	require.Equal(t, http.StatusOK, postJSON(t, h, `{"code":"x"}`).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `automaton_http_requests_total{method="POST",route="/analyze-code",status="200"} 1`)
}

func TestRateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newTestRouter(&fakeAnalyzer{}, Options{Limiter: middleware.NewRateLimiter(ctx, 0.001, 1)})

	assert.Equal(t, http.StatusOK, postJSON(t, h, `{"code":"x"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(t, h, `{"code":"x"}`).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/analyze-code", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "No issues identified.", digest(nil))
	got := digest([]domain.Finding{
		{Type: domain.TypeLineTooLong, Description: "Line too long (120/100)", Tool: "lint-python", Line: 3},
		{Type: domain.TypeStyleIssue, Description: "odd", Tool: "pylint"},
	})
	assert.Equal(t, "2 issue(s) found.\nline 3: line too long: Line too long (120/100) (lint-python)\nstyle issue: odd (pylint)", got)
}
