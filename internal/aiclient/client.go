// Package aiclient talks to the external AI services: processing
// (document summarization) and matching (CV against JD scoring).
package aiclient

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"talent-pipeline/internal/errors"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/storage"
	httpclient "talent-pipeline/pkg/http"
)

type DocType string

const (
	DocCV DocType = "cv"
	DocJD DocType = "jd"
)

type ProcessRequest struct {
	DocIDs  []string `json:"doc_ids"`
	DocType DocType  `json:"doc_type"`
	LLMName string   `json:"llm_name,omitempty"`
}

// ProcessResult is the processing service's output for one document.
// Summary is kept raw because CVs and JDs have different summary shapes.
type ProcessResult struct {
	DocID   string          `json:"doc_id"`
	Summary json.RawMessage `json:"summary"`
	Labels  []string        `json:"labels"`
}

type processResponse struct {
	DocType DocType         `json:"doc_type"`
	Results []ProcessResult `json:"results"`
}

type MatchRequest struct {
	JDID    string                `json:"jd_id"`
	CVIDs   []string              `json:"cv_ids"`
	Weight  *storage.WeightConfig `json:"weight"`
	LLMName string                `json:"llm_name,omitempty"`
}

type MatchResult struct {
	CVID           string                  `json:"cv_id"`
	MatchingResult *storage.MatchingResult `json:"matching_result"`
}

type matchResponse struct {
	Results []MatchResult `json:"results"`
}

type Config struct {
	ProcessingURL string
	MatchingURL   string
	// Processing timeout is this allowance times the number of documents.
	ProcessingTimeoutPerDoc time.Duration
	MatchingTimeout         time.Duration
	DefaultModel            string
}

type Client struct {
	http *httpclient.Client
	cfg  Config
	log  *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	return &Client{
		// Per-call deadlines come from the context, see PostJSON.
		http: httpclient.NewClient(0),
		cfg:  cfg,
		log:  logger.Component(log, "aiclient"),
	}
}

func (c *Client) model(m string) string {
	if m == "" {
		return c.cfg.DefaultModel
	}
	return m
}

// Process asks the processing service to summarize docIDs.
func (c *Client) Process(ctx context.Context, docIDs []string, docType DocType, model string) ([]ProcessResult, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}

	req := ProcessRequest{DocIDs: docIDs, DocType: docType, LLMName: c.model(model)}
	timeout := c.cfg.ProcessingTimeoutPerDoc * time.Duration(len(docIDs))

	start := time.Now()
	var resp processResponse
	if err := c.http.PostJSON(ctx, c.cfg.ProcessingURL, timeout, req, &resp); err != nil {
		return nil, errors.Upstream(err, "processing service")
	}
	c.log.Debug("processing call finished",
		zap.String("doc_type", string(docType)),
		zap.Int(logger.FieldCount, len(resp.Results)),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))
	return resp.Results, nil
}

// Match asks the matching service to score cvIDs against jdID.
func (c *Client) Match(ctx context.Context, jdID string, cvIDs []string, weight *storage.WeightConfig, model string) ([]MatchResult, error) {
	if jdID == "" {
		return nil, errors.Conflictf("position has no job description to match against")
	}
	if weight == nil {
		weight = &storage.WeightConfig{}
	}

	req := MatchRequest{JDID: jdID, CVIDs: cvIDs, Weight: weight, LLMName: c.model(model)}

	start := time.Now()
	var resp matchResponse
	if err := c.http.PostJSON(ctx, c.cfg.MatchingURL, c.cfg.MatchingTimeout, req, &resp); err != nil {
		return nil, errors.Upstream(err, "matching service")
	}
	c.log.Debug("matching call finished",
		zap.String(logger.FieldJDID, jdID),
		zap.Int(logger.FieldCount, len(resp.Results)),
		zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()))
	return resp.Results, nil
}
