package server

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
	"github.com/vanshika/fintrace/ringwatch/internal/ingest"
)

// RunIDHeader carries the run identifier of an analysis response.
const RunIDHeader = "X-Run-ID"

const uploadField = "file"

// Analyzer runs the detection pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, txs []domain.Transaction) (domain.Report, error)
}

// AnalyzeHandler accepts a CSV ledger and responds with the analysis report.
type AnalyzeHandler struct {
	logger   *slog.Logger
	analyzer Analyzer
	maxBytes int64
}

// NewAnalyzeHandler constructs the upload handler. maxBytes <= 0 disables the
// body size limit.
func NewAnalyzeHandler(logger *slog.Logger, analyzer Analyzer, maxBytes int64) *AnalyzeHandler {
	return &AnalyzeHandler{logger: logger, analyzer: analyzer, maxBytes: maxBytes}
}

type validationDetail struct {
	Errors []string     `json:"errors"`
	Stats  ingest.Stats `json:"stats"`
}

type validationResponse struct {
	Detail validationDetail `json:"detail"`
}

func (h *AnalyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	body, closeFn, err := ledgerBody(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer closeFn()

	txs, _, err := ingest.ParseCSV(body)
	if err != nil {
		h.fail(w, err)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), txs)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set(RunIDHeader, report.RunID)
	respondJSON(w, http.StatusOK, report)
}

func (h *AnalyzeHandler) fail(w http.ResponseWriter, err error) {
	var (
		verr   *ingest.ValidationError
		maxErr *http.MaxBytesError
		badReq *badRequestError
		csvErr *csv.ParseError
	)
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", maxErr.Limit))
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, validationResponse{Detail: validationDetail{Errors: verr.Errors, Stats: verr.Stats}})
	case errors.Is(err, ingest.ErrEmptyInput), errors.As(err, &badReq), errors.As(err, &csvErr):
		respondJSON(w, http.StatusBadRequest, validationResponse{Detail: validationDetail{
			Errors: []string{err.Error()},
			Stats:  ingest.Stats{Columns: []string{}},
		}})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("analysis cancelled by client")
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.Error("analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
	}
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

// ledgerBody returns the CSV stream of the request: the "file" part of a
// multipart form, or the raw body otherwise.
func ledgerBody(r *http.Request) (io.Reader, func(), error) {
	noop := func() {}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, noop, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, noop, &badRequestError{msg: fmt.Sprintf("invalid multipart body: %v", err)}
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, noop, &badRequestError{msg: fmt.Sprintf("multipart field %q is required", uploadField)}
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, noop, err
			}
			return nil, noop, &badRequestError{msg: fmt.Sprintf("invalid multipart body: %v", err)}
		}
		if part.FormName() == uploadField {
			return part, func() { _ = part.Close() }, nil
		}
		_ = part.Close()
	}
}
