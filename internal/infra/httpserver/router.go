package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/automaton-code/internal/application/detect"
	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-code/internal/middleware"
)

// DefaultMaxCodeBytes applies when Options.MaxCodeBytes is zero.
const DefaultMaxCodeBytes = 512 << 10

// multipartSlack covers form boundaries and headers around the file part.
const multipartSlack = 64 << 10

// Analyzer is the slice of analysis.Service the router needs.
type Analyzer interface {
	Analyze(ctx context.Context, sub domain.Submission) domain.Report
}

type Options struct {
	MaxCodeBytes int64
	CORSOrigins  []string
	Log          *slog.Logger
	Metrics      *middleware.Metrics
	Limiter      *middleware.RateLimiter
	// Ready gates /readyz. Nil means always ready.
	Ready middleware.HealthChecker
	// Checks are reported by /healthz.
	Checks map[string]middleware.HealthChecker
}

type Router struct {
	svc      Analyzer
	validate *middleware.Validator
	maxCode  int64
	log      *slog.Logger
}

func NewRouter(svc Analyzer, opts Options) http.Handler {
	if opts.MaxCodeBytes <= 0 {
		opts.MaxCodeBytes = DefaultMaxCodeBytes
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	ready := opts.Ready
	if ready == nil {
		ready = middleware.CheckFunc(func(context.Context) error { return nil })
	}

	r := &Router{
		svc:      svc,
		validate: middleware.NewValidator(),
		maxCode:  opts.MaxCodeBytes,
		log:      opts.Log,
	}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(opts.Log))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	if opts.Limiter != nil {
		mux.Use(opts.Limiter.Middleware)
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Checks))
	mux.Get("/readyz", middleware.ReadinessHandler(ready))
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Post("/analyze-code", r.wrap(r.handleAnalyzeCode))
	mux.Post("/upload", r.wrap(r.handleUpload))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrSubmissionTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, domain.ErrMalformedSubmission):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			r.log.Error("request failed",
				"request_id", middleware.RequestIDFrom(req.Context()),
				"path", req.URL.Path,
				"error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

type analyzeRequest struct {
	Code     string `json:"code" validate:"required"`
	Filename string `json:"filename,omitempty" validate:"omitempty,max=255,filename"`
	Language string `json:"language,omitempty" validate:"omitempty,language"`
}

// POST /analyze-code
// Body: {"code": "...", "filename": "app.py", "language": "python"}
func (r *Router) handleAnalyzeCode(w http.ResponseWriter, req *http.Request) error {
	// JSON escaping can double the size of the code on the wire.
	req.Body = http.MaxBytesReader(w, req.Body, 2*r.maxCode+multipartSlack)

	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return decodeError(err)
	}
	if err := r.validate.Struct(body); err != nil {
		return err
	}
	if int64(len(body.Code)) > r.maxCode {
		return fmt.Errorf("%w (limit %d bytes)", domain.ErrSubmissionTooLarge, r.maxCode)
	}

	declared, _ := domain.ParseTag(body.Language)
	report := r.svc.Analyze(req.Context(), domain.Submission{
		Content:          body.Code,
		Filename:         body.Filename,
		DeclaredLanguage: declared,
	})
	return writeJSON(w, http.StatusOK, newAnalyzeResponse(report))
}

// POST /upload
// Multipart form with the source in the "file" field.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxCode+multipartSlack)
	if err := req.ParseMultipartForm(r.maxCode + multipartSlack); err != nil {
		return decodeError(err)
	}
	defer req.MultipartForm.RemoveAll()

	file, hdr, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return fmt.Errorf("%w: no file provided", domain.ErrMalformedSubmission)
	}
	if err != nil {
		return decodeError(err)
	}
	defer file.Close()

	name := middleware.SanitizeFilename(hdr.Filename)
	if name == "" {
		return fmt.Errorf("%w: no file selected", domain.ErrMalformedSubmission)
	}
	if !allowedUpload(name) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, name)
	}

	data, err := io.ReadAll(io.LimitReader(file, r.maxCode+1))
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > r.maxCode {
		return fmt.Errorf("%w (limit %d bytes)", domain.ErrSubmissionTooLarge, r.maxCode)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: file is empty", domain.ErrMalformedSubmission)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: file is not UTF-8 text", domain.ErrMalformedSubmission)
	}

	report := r.svc.Analyze(req.Context(), domain.Submission{Content: string(data), Filename: name})
	resp := newAnalyzeResponse(report)
	resp.FileName = name
	resp.Message = "file analyzed"
	return writeJSON(w, http.StatusOK, resp)
}

// allowedUpload accepts plain text plus every extension the detector knows.
func allowedUpload(name string) bool {
	if strings.EqualFold(path.Ext(name), ".txt") {
		return true
	}
	return detect.KnownExtension(name)
}

func decodeError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w (limit %d bytes)", domain.ErrSubmissionTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %v", domain.ErrMalformedSubmission, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
