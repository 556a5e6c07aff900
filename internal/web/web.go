package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplit/internal/batch"
	"github.com/local/pdfsplit/internal/filetype"
	"github.com/local/pdfsplit/internal/limiter"
	"github.com/local/pdfsplit/internal/metrics"
	"github.com/local/pdfsplit/internal/pdf"
	"github.com/local/pdfsplit/internal/storage"
	"github.com/local/pdfsplit/internal/store"
)

// Dependencies wires the HTTP surface to storage and limits.
type Dependencies struct {
	Results        *store.Results
	Index          store.Index
	Mirror         *storage.S3Client // optional S3 mirroring, nil to disable
	Limiter        *limiter.Limiter
	MaxUploadBytes int64
	MaxBatchFiles  int
}

// Server exposes the extraction API: upload, split, batch-process, download.
type Server struct {
	results       *store.Results
	index         store.Index
	mirror        *storage.S3Client
	limiter       *limiter.Limiter
	detector      *filetype.Detector
	maxUpload     int64
	maxBatchFiles int
}

func New(deps Dependencies) *Server {
	if deps.Limiter == nil {
		deps.Limiter = limiter.New(0)
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 64 << 20
	}
	if deps.MaxBatchFiles <= 0 {
		deps.MaxBatchFiles = 50
	}
	return &Server{
		results:       deps.Results,
		index:         deps.Index,
		mirror:        deps.Mirror,
		limiter:       deps.Limiter,
		detector:      filetype.New(),
		maxUpload:     deps.MaxUploadBytes,
		maxBatchFiles: deps.MaxBatchFiles,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/split", s.handleSplit)
	mux.HandleFunc("/batch-process", s.handleBatch)
	mux.HandleFunc("/download/", s.handleDownload)
}

type splitResponse struct {
	Status        string        `json:"status"`
	Message       string        `json:"message,omitempty"`
	DownloadURL   string        `json:"download_url,omitempty"`
	Metadata      *pdf.Metadata `json:"metadata,omitempty"`
	ExtractedText string        `json:"extracted_text,omitempty"`
	FileSize      string        `json:"file_size,omitempty"`
}

type batchResponse struct {
	Status         string   `json:"status"`
	Message        string   `json:"message,omitempty"`
	DownloadURL    string   `json:"download_url,omitempty"`
	ProcessedFiles int      `json:"processed_files"`
	TotalFiles     int      `json:"total_files"`
	Errors         []string `json:"errors"`
}

// handleUpload validates an uploaded PDF and returns its metadata without
// extracting anything.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	name, data, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		jsonError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}
	if info := s.detector.Detect(data); !info.IsPDF {
		jsonError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	doc, err := pdf.Open(data)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing PDF: %v", err))
		return
	}
	md, err := pdf.ReadMetadata(doc)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing PDF: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, splitResponse{
		Status:   "success",
		Message:  "PDF uploaded successfully",
		Metadata: md,
		FileSize: sizeKB(doc.Size()),
	})
}

// handleSplit extracts the requested pages from a single PDF and stores the
// result for download.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	release, allowed := s.limiter.Allow()
	if !allowed {
		jsonError(w, http.StatusServiceUnavailable, "Server busy, try again later")
		return
	}
	defer release()

	name, data, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}
	pagesExpr := r.FormValue("pages")
	if pagesExpr == "" {
		pagesExpr = "1"
	}
	format := r.FormValue("output_format")
	if format == "" {
		format = batch.FormatPDF
	}
	if format != batch.FormatPDF {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported output format %q", format))
		return
	}

	start := time.Now()
	doc, err := pdf.Open(data)
	if err != nil {
		metrics.IncDocument("read_error")
		jsonError(w, http.StatusInternalServerError, fmt.Sprintf("Error splitting PDF: %v", err))
		return
	}
	pages, err := pdf.ParsePageSelection(pagesExpr, doc.PageCount())
	if err != nil {
		metrics.IncDocument("selection_error")
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	md, err := pdf.ReadMetadata(doc)
	if err != nil {
		metrics.IncDocument("read_error")
		jsonError(w, http.StatusInternalServerError, fmt.Sprintf("Error splitting PDF: %v", err))
		return
	}
	ex, err := pdf.Extract(doc, pages)
	if err != nil {
		metrics.IncDocument("extract_error")
		jsonError(w, http.StatusInternalServerError, fmt.Sprintf("Error splitting PDF: %v", err))
		return
	}
	metrics.IncDocument("success")
	metrics.ObserveExtraction("single", time.Since(start))

	stored := uuid.NewString() + "_split.pdf"
	if !s.storeResult(w, r, stored, name, "application/pdf", ex.PDF) {
		return
	}

	log.Info().Str("file", name).Str("stored", stored).Int("pages", len(pages)).Msg("split complete")
	writeJSON(w, http.StatusOK, splitResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Extracted pages %s successfully", pagesExpr),
		DownloadURL:   "/download/" + stored,
		Metadata:      md,
		ExtractedText: ex.Text,
		FileSize:      sizeKB(ex.Size),
	})
}

// handleBatch runs the shared page selection over every uploaded file and
// stores the resulting archive.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(headers) > s.maxBatchFiles {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("Too many files: %d (limit %d)", len(headers), s.maxBatchFiles))
		return
	}
	pagesExpr := r.FormValue("pages")
	if pagesExpr == "" {
		pagesExpr = "1"
	}
	format := r.FormValue("output_format")
	if format == "" {
		format = batch.FormatPDF
	}
	if format != batch.FormatPDF {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported output format %q", format))
		return
	}

	release, allowed := s.limiter.Allow()
	if !allowed {
		jsonError(w, http.StatusServiceUnavailable, "Server busy, try again later")
		return
	}
	defer release()

	inputs := make([]batch.Input, 0, len(headers))
	for _, hdr := range headers {
		inputs = append(inputs, batch.Input{Name: hdr.Filename, Data: readPart(hdr)})
	}

	rep, err := batch.Run(r.Context(), inputs, pagesExpr, format)
	if err != nil {
		if errors.Is(err, batch.ErrNoDocumentsProcessed) {
			metrics.IncBatch("empty")
			jsonError(w, http.StatusBadRequest, "No files were processed successfully")
			return
		}
		metrics.IncBatch("error")
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored := "batch_" + uuid.NewString() + ".zip"
	if !s.storeResult(w, r, stored, stored, "application/zip", rep.Archive) {
		return
	}
	metrics.IncBatch("success")

	errs := rep.Errors
	if errs == nil {
		errs = []string{}
	}
	log.Info().Int("processed", rep.Processed).Int("total", rep.Total).Str("stored", stored).Msg("batch complete")
	writeJSON(w, http.StatusOK, batchResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Processed %d files", rep.Processed),
		DownloadURL:    "/download/" + stored,
		ProcessedFiles: rep.Processed,
		TotalFiles:     rep.Total,
		Errors:         errs,
	})
}

// handleDownload serves a stored result by name.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/download/")
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		jsonError(w, http.StatusNotFound, "File not found")
		return
	}
	entry, ok, err := s.index.Get(r.Context(), name)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "Lookup failed")
		return
	}
	if !ok {
		metrics.IncDownload("missing")
		jsonError(w, http.StatusNotFound, "File not found")
		return
	}
	data, err := s.results.Open(name)
	if err != nil {
		metrics.IncDownload("missing")
		jsonError(w, http.StatusNotFound, "File not found")
		return
	}
	metrics.IncDownload("ok")
	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}

// readUpload parses the multipart form and returns the named file part.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid multipart form")
		return "", nil, false
	}
	file, hdr, err := r.FormFile(field)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Missing file")
		return "", nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Failed to read upload")
		return "", nil, false
	}
	return hdr.Filename, data, true
}

// storeResult persists output bytes, indexes them for download and mirrors
// them to S3 when configured. Mirror failures are logged, not fatal.
func (s *Server) storeResult(w http.ResponseWriter, r *http.Request, stored, original, contentType string, data []byte) bool {
	if err := s.results.Save(stored, data); err != nil {
		log.Error().Err(err).Str("stored", stored).Msg("failed to save result")
		jsonError(w, http.StatusInternalServerError, "Failed to store result")
		return false
	}
	err := s.index.Put(r.Context(), store.Entry{
		Name:         stored,
		OriginalName: original,
		ContentType:  contentType,
		Size:         int64(len(data)),
		Created:      time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("stored", stored).Msg("failed to index result")
		_ = s.results.Remove(stored)
		jsonError(w, http.StatusInternalServerError, "Failed to store result")
		return false
	}
	if s.mirror != nil {
		if err := s.mirror.Upload(r.Context(), stored, data, contentType); err != nil {
			log.Warn().Err(err).Str("stored", stored).Msg("S3 mirror failed")
		}
	}
	return true
}

func readPart(hdr *multipart.FileHeader) []byte {
	f, err := hdr.Open()
	if err != nil {
		return nil
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return data
}

func sizeKB(n int64) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
