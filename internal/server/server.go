// Package server is the HTTP front door: it accepts an uploaded document,
// runs the extraction pipeline on it, and returns the result as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/docintake/internal/model"
)

// Processor runs the extraction pipeline for one stored upload.
type Processor interface {
	Process(ctx context.Context, src model.SourceFile) (*model.ExtractionResult, error)
}

// Options configures a Server.
type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	MaxWorkers     int64
	KeepUploads    bool
	AllowedOrigins []string
}

// Error kinds that originate in the HTTP layer rather than the pipeline.
const (
	kindBadRequest model.ErrorKind = "bad_request"
	kindTooLarge   model.ErrorKind = "request_too_large"
	kindBusy       model.ErrorKind = "unavailable"
)

const multipartMemory = 8 << 20

// Server serves the upload API.
type Server struct {
	proc   Processor
	opts   Options
	slots  *semaphore.Weighted
	router chi.Router
}

// New creates a Server and makes sure the upload directory exists.
func New(proc Processor, opts Options) (*Server, error) {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "server: create upload dir %s", opts.UploadDir)
	}

	s := &Server{
		proc:  proc,
		opts:  opts,
		slots: semaphore.NewWeighted(opts.MaxWorkers),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/admin/upload", s.handleUpload)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, http.StatusRequestEntityTooLarge, kindTooLarge, "upload exceeds size limit")
			return
		}
		respondError(w, http.StatusBadRequest, kindBadRequest, "No file provided")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, kindBadRequest, "No file provided")
		return
	}
	defer file.Close() //nolint:errcheck

	name := baseName(header.Filename)
	if name == "" {
		respondError(w, http.StatusBadRequest, kindBadRequest, "No file provided")
		return
	}

	// Reject unknown types before anything touches the disk.
	probe := model.NewNamedSourceFile("", name)
	if probe.Format() == model.FormatUnsupported {
		respondPipelineError(w, model.UnsupportedFormatError(probe.Ext))
		return
	}

	if err := s.slots.Acquire(r.Context(), 1); err != nil {
		respondError(w, http.StatusServiceUnavailable, kindBusy, "server busy")
		return
	}
	defer s.slots.Release(1)

	stored, err := s.store(file, name)
	if err != nil {
		zap.L().Error("server: store upload", zap.String("file", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, model.KindUnknown, "could not store upload")
		return
	}
	if !s.opts.KeepUploads {
		defer func() {
			if err := os.Remove(stored); err != nil && !os.IsNotExist(err) {
				zap.L().Warn("server: remove upload", zap.String("path", stored), zap.Error(err))
			}
		}()
	}

	result, err := s.proc.Process(r.Context(), model.NewNamedSourceFile(stored, name))
	if err != nil {
		zap.L().Warn("server: extraction failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("file", name),
			zap.String("kind", string(model.KindOf(err))),
			zap.Error(err),
		)
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// store writes the upload as <uuid>-<name> under the upload directory.
func (s *Server) store(src io.Reader, name string) (string, error) {
	dest := filepath.Join(s.opts.UploadDir, uuid.NewString()+"-"+name)
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", eris.Wrap(err, "server: create upload file")
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(dest) //nolint:errcheck
		return "", eris.Wrap(err, "server: write upload file")
	}
	if err := f.Close(); err != nil {
		os.Remove(dest) //nolint:errcheck
		return "", eris.Wrap(err, "server: close upload file")
	}
	return dest, nil
}

// baseName strips any client-supplied directory, including Windows-style
// paths.
func baseName(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	base := path.Base(filename)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// StatusForKind maps a pipeline error kind to an HTTP status.
func StatusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case model.KindParseError, model.KindRenderError, model.KindImageError:
		return http.StatusUnprocessableEntity
	case model.KindServiceError, model.KindNormalizationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind"`
}

func respondPipelineError(w http.ResponseWriter, err error) {
	kind := model.KindOf(err)
	respondError(w, StatusForKind(kind), kind, err.Error())
}

func respondError(w http.ResponseWriter, status int, kind model.ErrorKind, msg string) {
	respondJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}
