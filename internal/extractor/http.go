package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"medidoc/internal/config"
	"medidoc/internal/model"
)

// maxErrorBodyBytes caps how much of an error response is kept for auditing.
const maxErrorBodyBytes = 8 * 1024

// processResponse is the wire shape of a successful /process call.
type processResponse struct {
	RequestID        string               `json:"request_id"`
	DocType          string               `json:"doc_type"`
	ProcessingTimeMS int64                `json:"processing_time_ms"`
	OCREngine        string               `json:"ocr_engine"`
	Note             string               `json:"note"`
	Fields           model.DocumentFields `json:"fields"`
	Confidence       map[string]float64   `json:"confidence"`
	Warnings         []string             `json:"warnings"`
}

// httpExtractor implements Extractor over the OCR service's HTTP API.
type httpExtractor struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates an Extractor that POSTs files to {base_url}/process.
func NewHTTP(cfg config.ExtractorConfig) (Extractor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("extractor base url is required")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpExtractor{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (h *httpExtractor) Extract(ctx context.Context, file io.Reader, filename, docType string) (*model.ExtractionResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file into request: %w", err)
	}
	if docType != "" {
		if err := w.WriteField("doc_type", docType); err != nil {
			return nil, fmt.Errorf("write doc_type field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/process", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &TransportError{Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var pr processResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode extractor response: %w", err)
	}

	result := &model.ExtractionResult{
		Meta: model.ExtractionMeta{
			RequestID:        pr.RequestID,
			DocType:          pr.DocType,
			ProcessingTimeMS: pr.ProcessingTimeMS,
			OCREngine:        pr.OCREngine,
			Note:             pr.Note,
		},
		Fields:     pr.Fields,
		Confidence: pr.Confidence,
		Warnings:   pr.Warnings,
	}
	if result.Confidence == nil {
		result.Confidence = map[string]float64{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return result, nil
}
