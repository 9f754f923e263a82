// Package server exposes the analyzer over HTTP: PDF uploads in, summary
// workbook out.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/team-sakkal/caoscan/internal/export"
	"github.com/team-sakkal/caoscan/internal/model"
	"github.com/team-sakkal/caoscan/internal/pipeline"
)

// Analyzer runs the document pipeline; satisfied by *pipeline.Pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, docs []pipeline.Document) *model.AnalysisRun
}

// Renderer turns a run into workbook bytes; satisfied by *export.Renderer.
type Renderer interface {
	Render(run *model.AnalysisRun) ([]byte, error)
}

type WebAPI struct {
	router   *chi.Mux
	logger   zerolog.Logger
	server   *http.Server
	cfg      model.ServerConfig
	analyzer Analyzer
	renderer Renderer
}

func NewWebAPI(cfg model.ServerConfig, analyzer Analyzer, renderer Renderer, logger zerolog.Logger) *WebAPI {
	api := &WebAPI{
		logger:   logger.With().Str("component", "server").Logger(),
		cfg:      cfg,
		analyzer: analyzer,
		renderer: renderer,
	}

	router := chi.NewRouter()
	router.Use(requestLogger(api.logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", api.handleHealth)
	router.Post("/api/process", api.handleProcess)

	api.router = router
	api.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}
	return api
}

// Handler returns the HTTP handler, for tests and embedding.
func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until the listener fails or SIGINT/SIGTERM arrives, then
// drains outstanding requests within the configured shutdown timeout.
func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ShutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		return err
	}
}

func (w *WebAPI) handleHealth(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte(`{"status":"ok"}`))
}

func (w *WebAPI) handleProcess(rw http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(rw, r.Body, w.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(rw, http.StatusBadRequest, "Geen bestanden meegegeven")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeError(rw, http.StatusBadRequest, "Geen bestanden meegegeven")
		return
	}

	dir, err := os.MkdirTemp("", "caoscan-upload-*")
	if err != nil {
		writeError(rw, http.StatusInternalServerError, serverFault(err))
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	docs, err := saveUploads(dir, uploads)
	if err != nil {
		writeError(rw, http.StatusInternalServerError, serverFault(err))
		return
	}
	if len(docs) == 0 {
		writeError(rw, http.StatusBadRequest, "Geen bestanden geselecteerd")
		return
	}

	w.logger.Info().Int("documents", len(docs)).Msg("processing upload")
	run := w.analyzer.Analyze(r.Context(), docs)
	if !run.HasIncreases() {
		writeError(rw, http.StatusInternalServerError, model.ErrNoIncreases.Error())
		return
	}

	workbook, err := w.renderer.Render(run)
	if err != nil {
		w.logger.Error().Err(err).Msg("workbook rendering failed")
		writeError(rw, http.StatusInternalServerError, serverFault(err))
		return
	}

	rw.Header().Set("Content-Type", export.ContentType)
	rw.Header().Set("Content-Disposition", `attachment; filename="`+export.DownloadName+`"`)
	rw.Header().Set("Content-Length", strconv.Itoa(len(workbook)))
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(workbook)
}

// saveUploads writes each upload into dir and returns one document per
// file, keyed by its sanitized name. Duplicate names get a numeric
// suffix so every document keeps its own result.
func saveUploads(dir string, uploads []*multipart.FileHeader) ([]pipeline.Document, error) {
	seen := make(map[string]int)
	docs := make([]pipeline.Document, 0, len(uploads))
	for i, fh := range uploads {
		name := filepath.Base(filepath.ToSlash(fh.Filename))
		if name == "" || name == "." || name == ".." || name == "/" {
			continue
		}
		id := uniqueID(seen, name)
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s", i, name))
		if err := saveUpload(fh, path); err != nil {
			return nil, fmt.Errorf("save %s: %w", name, err)
		}
		docs = append(docs, pipeline.Document{ID: id, Path: path})
	}
	return docs, nil
}

func saveUpload(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func uniqueID(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
}

func writeError(rw http.ResponseWriter, status int, message string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(map[string]string{"error": message})
}

func serverFault(err error) string {
	return "Onverwachte serverfout: " + err.Error()
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			reqLogger := logger.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", req.RemoteAddr).
				Logger()
			reqLogger.Debug().Msg("request received")

			ctx := reqLogger.WithContext(req.Context())
			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	}
}
