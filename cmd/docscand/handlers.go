package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gardar/docscan/pkg/export"
	"github.com/gardar/docscan/pkg/ocr"
	"github.com/gardar/docscan/pkg/pipeline"
	"github.com/gardar/docscan/pkg/scan"
	"github.com/gardar/docscan/pkg/segment"
	"github.com/gardar/docscan/pkg/store"
)

const (
	maxUploadBytes = 32 << 20
	maxJSONBytes   = 4 << 20
	scanTimeout    = 3 * time.Minute
)

// documentStore is the part of *store.Store the handlers use.
type documentStore interface {
	Save(ctx context.Context, rec store.Record) (store.Record, error)
	Get(ctx context.Context, id string) (store.Record, error)
	Search(ctx context.Context, q store.Query) ([]store.Record, error)
}

type handler struct {
	pipeline *pipeline.Pipeline
	docs     documentStore
}

func newHandler(p *pipeline.Pipeline, docs documentStore) *handler {
	return &handler{pipeline: p, docs: docs}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /scan", h.handleScan)
	mux.HandleFunc("POST /documents", h.handleCreateDocument)
	mux.HandleFunc("GET /documents", h.handleSearchDocuments)
	mux.HandleFunc("GET /documents/{id}", h.handleGetDocument)
	mux.HandleFunc("POST /export/{format}", h.handleExport)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

type scanResponse struct {
	*pipeline.Result
	// ScannedImage is the page OCR ran on, as a PNG data URL.
	ScannedImage string        `json:"scannedImage,omitempty"`
	Document     *store.Record `json:"document,omitempty"`
}

// POST /scan
// Accepts a multipart "file" field or a raw image body. Optional parameters
// (form fields or query): crop=x,y,w,h, image=true to return the page image,
// save=true to store the result.
func (h *handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), scanTimeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var res *pipeline.Result
	if spec := r.FormValue("crop"); spec != "" {
		region, err := scan.ParseRect(spec)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err = h.pipeline.ProcessRegion(ctx, data, region, nil)
		if err != nil {
			writeScanError(w, err)
			return
		}
	} else {
		res, err = h.pipeline.Process(ctx, data, nil)
		if err != nil {
			writeScanError(w, err)
			return
		}
	}

	resp := scanResponse{Result: res}
	if flagValue(r, "image") {
		var buf bytes.Buffer
		if err := png.Encode(&buf, res.Image); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to encode page image")
			slog.Error("encoding page image", "error", err)
			return
		}
		resp.ScannedImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	if flagValue(r, "save") {
		rec, err := h.docs.Save(ctx, res.Record())
		switch {
		case errors.Is(err, store.ErrInvalidRecord):
			writeError(w, http.StatusUnprocessableEntity, "no text recognized; nothing to save")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "failed to save document")
			slog.Error("saving document", "error", err)
			return
		}
		resp.Document = &rec
	}

	writeJSON(w, http.StatusOK, resp)
}

// readUpload returns the uploaded image bytes.
func readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, fmt.Errorf("invalid multipart upload: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("missing \"file\" field")
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("expected multipart \"file\" field or an image body")
	}
	return data, nil
}

func writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scan.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, "invalid image")
	case errors.Is(err, ocr.ErrRecognitionFailed):
		writeError(w, http.StatusBadGateway, "text recognition failed")
		slog.Error("recognition error", "error", err)
	default:
		writeError(w, http.StatusInternalServerError, "scan failed")
		slog.Error("scan error", "error", err)
	}
}

func flagValue(r *http.Request, name string) bool {
	ok, _ := strconv.ParseBool(r.FormValue(name))
	return ok
}

type documentRequest struct {
	Title          string            `json:"title"`
	RawText        string            `json:"rawText"`
	Sections       []segment.Section `json:"sections"`
	ScannedFound   bool              `json:"scannedFound"`
	DocType        string            `json:"docType"`
	MeanConfidence int               `json:"meanConfidence"`
}

// POST /documents
func (h *handler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = pipeline.Title(req.RawText, pipeline.StoreTitleLen)
	}

	rec, err := h.docs.Save(r.Context(), store.Record{
		Title:          req.Title,
		RawText:        req.RawText,
		Sections:       req.Sections,
		ScannedFound:   req.ScannedFound,
		DocType:        req.DocType,
		MeanConfidence: req.MeanConfidence,
	})
	switch {
	case errors.Is(err, store.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, "rawText and sections are required")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to save document")
		slog.Error("saving document", "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// GET /documents?q=&from=&to=&type=&limit=
func (h *handler) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := store.Query{Text: strings.TrimSpace(params.Get("q")), DocType: params.Get("type")}

	var err error
	if q.From, err = store.ParseDay(params.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	if q.To, err = store.ParseDay(params.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if v := params.Get("limit"); v != "" {
		if q.Limit, err = strconv.Atoi(v); err != nil || q.Limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
	}

	docs, err := h.docs.Search(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search documents")
		slog.Error("search documents error", "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// GET /documents/{id}
func (h *handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := h.docs.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to load document")
		slog.Error("get document error", "document_id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type exportRequest struct {
	Title          string            `json:"title"`
	DocType        string            `json:"docType"`
	MeanConfidence int               `json:"meanConfidence"`
	RawText        string            `json:"rawText"`
	Sections       []segment.Section `json:"sections"`
}

// POST /export/{format}
// Sections are segmented from rawText when omitted.
func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Sections == nil {
		if strings.TrimSpace(req.RawText) == "" {
			writeError(w, http.StatusBadRequest, "sections or rawText is required")
			return
		}
		req.Sections = segment.Segment(req.RawText)
	}
	if req.Title == "" && req.RawText != "" {
		req.Title = pipeline.Title(req.RawText, pipeline.StoreTitleLen)
	}

	data, err := export.Render(format, export.Document{
		Title:          req.Title,
		DocType:        req.DocType,
		MeanConfidence: req.MeanConfidence,
		Sections:       req.Sections,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		slog.Error("export error", "format", format, "error", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": format.Filename()}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
