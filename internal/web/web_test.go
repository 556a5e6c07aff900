package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/local/pdfsplit/internal/limiter"
	"github.com/local/pdfsplit/internal/pdftest"
	"github.com/local/pdfsplit/internal/store"
)

func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()
	results, err := store.NewResults(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new results: %v", err)
	}
	srv := New(Dependencies{
		Results: results,
		Index:   store.NewMemoryIndex(time.Hour),
		Limiter: limiter.New(4),
	})
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, mux
}

type filePart struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := w.Write(f.data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func post(t *testing.T, mux *http.ServeMux, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rr.Body.String())
	}
}

func TestUpload(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, nil, filePart{"file", "doc.pdf", pdftest.MinimalPDF("hello", "world")})
	rr := post(t, mux, "/upload", body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Metadata struct {
			TotalPages int `json:"total_pages"`
		} `json:"metadata"`
		FileSize string `json:"file_size"`
	}
	decode(t, rr, &resp)
	if resp.Status != "success" || resp.Message != "PDF uploaded successfully" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Metadata.TotalPages != 2 {
		t.Fatalf("total pages = %d, want 2", resp.Metadata.TotalPages)
	}
	if !strings.HasSuffix(resp.FileSize, " KB") {
		t.Fatalf("file size = %q", resp.FileSize)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	_, mux := newTestServer(t)

	// wrong extension
	body, ct := multipartBody(t, nil, filePart{"file", "doc.txt", pdftest.MinimalPDF("x")})
	rr := post(t, mux, "/upload", body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}

	// right extension, wrong content
	body, ct = multipartBody(t, nil, filePart{"file", "doc.pdf", []byte("plain text masquerading")})
	rr = post(t, mux, "/upload", body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Detail string `json:"detail"`
	}
	decode(t, rr, &resp)
	if resp.Detail != "Only PDF files are allowed" {
		t.Fatalf("detail = %q", resp.Detail)
	}
}

func TestSplitAndDownload(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{"pages": "1,3"},
		filePart{"file", "report.pdf", pdftest.MinimalPDF("alpha", "bravo", "charlie")})
	rr := post(t, mux, "/split", body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status        string `json:"status"`
		Message       string `json:"message"`
		DownloadURL   string `json:"download_url"`
		ExtractedText string `json:"extracted_text"`
	}
	decode(t, rr, &resp)
	if resp.Status != "success" || resp.Message != "Extracted pages 1,3 successfully" {
		t.Fatalf("response = %+v", resp)
	}
	if !strings.HasPrefix(resp.DownloadURL, "/download/") || !strings.HasSuffix(resp.DownloadURL, "_split.pdf") {
		t.Fatalf("download url = %q", resp.DownloadURL)
	}
	if !strings.Contains(resp.ExtractedText, "=== Page 1 ===") || !strings.Contains(resp.ExtractedText, "=== Page 3 ===") {
		t.Fatalf("extracted text = %q", resp.ExtractedText)
	}

	req := httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil)
	drr := httptest.NewRecorder()
	mux.ServeHTTP(drr, req)
	if drr.Code != http.StatusOK {
		t.Fatalf("download status = %d", drr.Code)
	}
	if got := drr.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type = %q", got)
	}
	if !strings.Contains(drr.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("content disposition = %q", drr.Header().Get("Content-Disposition"))
	}
	data, _ := io.ReadAll(drr.Body)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("downloaded body is not a PDF")
	}
}

func TestSplitDefaultsToFirstPage(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, nil, filePart{"file", "doc.pdf", pdftest.MinimalPDF("one", "two")})
	rr := post(t, mux, "/split", body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ExtractedText string `json:"extracted_text"`
	}
	decode(t, rr, &resp)
	if !strings.Contains(resp.ExtractedText, "=== Page 1 ===") || strings.Contains(resp.ExtractedText, "=== Page 2 ===") {
		t.Fatalf("extracted text = %q", resp.ExtractedText)
	}
}

func TestSplitSelectionError(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{"pages": "9"},
		filePart{"file", "doc.pdf", pdftest.MinimalPDF("only")})
	rr := post(t, mux, "/split", body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Detail string `json:"detail"`
	}
	decode(t, rr, &resp)
	if resp.Detail != "Page 9 is out of range (1-1)" {
		t.Fatalf("detail = %q", resp.Detail)
	}
}

func TestBatchPartial(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{"pages": "1"},
		filePart{"files", "good.pdf", pdftest.MinimalPDF("ok")},
		filePart{"files", "bad.txt", []byte("not a pdf")},
	)
	rr := post(t, mux, "/batch-process", body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status         string   `json:"status"`
		DownloadURL    string   `json:"download_url"`
		ProcessedFiles int      `json:"processed_files"`
		TotalFiles     int      `json:"total_files"`
		Errors         []string `json:"errors"`
	}
	decode(t, rr, &resp)
	if resp.ProcessedFiles != 1 || resp.TotalFiles != 2 {
		t.Fatalf("processed/total = %d/%d", resp.ProcessedFiles, resp.TotalFiles)
	}
	if len(resp.Errors) != 1 || resp.Errors[0] != "Skipped bad.txt: Not a PDF file" {
		t.Fatalf("errors = %v", resp.Errors)
	}
	if !strings.HasPrefix(resp.DownloadURL, "/download/batch_") || !strings.HasSuffix(resp.DownloadURL, ".zip") {
		t.Fatalf("download url = %q", resp.DownloadURL)
	}

	req := httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil)
	drr := httptest.NewRecorder()
	mux.ServeHTTP(drr, req)
	if drr.Code != http.StatusOK {
		t.Fatalf("download status = %d", drr.Code)
	}
	if got := drr.Header().Get("Content-Type"); got != "application/zip" {
		t.Fatalf("content type = %q", got)
	}
}

func TestBatchAllFail(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, nil,
		filePart{"files", "a.txt", []byte("nope")},
		filePart{"files", "b.pdf", []byte("broken")},
	)
	rr := post(t, mux, "/batch-process", body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Detail string `json:"detail"`
	}
	decode(t, rr, &resp)
	if resp.Detail != "No files were processed successfully" {
		t.Fatalf("detail = %q", resp.Detail)
	}
}

func TestBatchNoFiles(t *testing.T) {
	_, mux := newTestServer(t)
	body, ct := multipartBody(t, map[string]string{"pages": "1"})
	rr := post(t, mux, "/batch-process", body, ct)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Detail string `json:"detail"`
	}
	decode(t, rr, &resp)
	if resp.Detail != "No files uploaded" {
		t.Fatalf("detail = %q", resp.Detail)
	}
}

func TestDownloadMissing(t *testing.T) {
	_, mux := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/download/nope.pdf", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestDownloadTraversal(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/download/x", nil)
	for _, name := range []string{"../escape", "..\\escape", "a/../b", ".."} {
		req.URL.Path = "/download/" + name
		rr := httptest.NewRecorder()
		srv.handleDownload(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%q: status = %d", name, rr.Code)
		}
	}
}

func TestSplitMethodNotAllowed(t *testing.T) {
	_, mux := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/split", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
}
