package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agentrail/agent-registry-backend/attest"
	"github.com/agentrail/agent-registry-backend/crawler"
	"github.com/agentrail/agent-registry-backend/interfaces"
	"github.com/agentrail/agent-registry-backend/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes HTTP requests for the feedback and discovery APIs.
type Handler struct {
	pipeline *attest.Pipeline
	store    interfaces.ContentStore
	crawler  *crawler.Crawler
	metrics  *metrics.MetricsServer
	log      *slog.Logger
}

// NewHandler creates an HTTP request handler with the given dependencies.
// The content store and metrics server may be nil.
func NewHandler(pipeline *attest.Pipeline, store interfaces.ContentStore, c *crawler.Crawler, m *metrics.MetricsServer, log *slog.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		store:    store,
		crawler:  c,
		metrics:  m,
		log:      log,
	}
}

func (h *Handler) countSubmission(outcome string) {
	if h.metrics != nil {
		h.metrics.FeedbackSubmissions.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countCrawl(result string) {
	if h.metrics != nil {
		h.metrics.CrawlResults.WithLabelValues(result).Inc()
	}
}

// feedbackRequest is the JSON body of a feedback submission.
type feedbackRequest struct {
	Score          float64        `json:"score"`
	Tags           []string       `json:"tags,omitempty"`
	Skill          string         `json:"skill,omitempty"`
	TaskID         string         `json:"taskId,omitempty"`
	Capability     string         `json:"capability,omitempty"`
	Name           string         `json:"name,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
	ProofOfPayment string         `json:"proofOfPayment,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	ExpiryHours    uint64         `json:"expiryHours,omitempty"`
}

// feedbackResponse is returned once a submission is confirmed.
type feedbackResponse struct {
	TxHash      string                    `json:"txHash"`
	BlockNumber string                    `json:"blockNumber"`
	Index       uint64                    `json:"index"`
	ContentURI  string                    `json:"contentUri,omitempty"`
	Record      interfaces.FeedbackRecord `json:"record"`
}

// HandleSubmitFeedback runs the attestation pipeline for the agent in the
// URL path.
func (h *Handler) HandleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req feedbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.pipeline.Submit(r.Context(), attest.SubmitRequest{
		AgentID:        chi.URLParam(r, "agent_id"),
		Score:          req.Score,
		Tags:           req.Tags,
		Skill:          req.Skill,
		TaskID:         req.TaskID,
		Capability:     req.Capability,
		Name:           req.Name,
		Context:        req.Context,
		ProofOfPayment: req.ProofOfPayment,
		Extra:          req.Extra,
		ExpiryHours:    req.ExpiryHours,
	})
	if err != nil {
		h.log.Error("feedback submission failed", "err", err)
		h.countSubmission(submissionOutcome(err))
		writeError(w, submissionStatus(err), err)
		return
	}

	h.countSubmission("confirmed")
	writeJSON(w, http.StatusOK, feedbackResponse{
		TxHash:      result.TxHash.Hex(),
		BlockNumber: result.BlockNumber.String(),
		Index:       result.Index,
		ContentURI:  result.ContentURI.String(),
		Record:      result.Record,
	})
}

// HandleFetchContent retrieves a pinned feedback document by CID through
// the gateway cascade.
func (h *Handler) HandleFetchContent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, errors.New("no content store configured"))
		return
	}

	cid := chi.URLParam(r, "cid")
	data, err := h.store.Fetch(r.Context(), interfaces.ContentURI("ipfs://"+cid))
	if err != nil {
		if errors.Is(err, interfaces.ErrContentUnavailable) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// crawlRequest is the JSON body of a capability crawl.
type crawlRequest struct {
	Endpoint string `json:"endpoint"`
}

// crawlResponse carries whatever could be discovered; Capabilities is
// null when the endpoint exposed nothing recognizable.
type crawlResponse struct {
	Endpoint     string                   `json:"endpoint"`
	Capabilities interfaces.CapabilitySet `json:"capabilities"`
}

// HandleCrawl probes the posted endpoint for capabilities. Discovery
// failures are not errors; an empty result is a valid answer.
func (h *Handler) HandleCrawl(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req crawlRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, errors.New("endpoint is required"))
		return
	}

	set := h.crawler.Crawl(r.Context(), req.Endpoint)
	if set == nil {
		h.countCrawl("empty")
	} else {
		h.countCrawl("found")
	}
	writeJSON(w, http.StatusOK, crawlResponse{Endpoint: req.Endpoint, Capabilities: set})
}

// submissionOutcome labels a failed submission for metrics.
func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrInvalidAgentID), errors.Is(err, interfaces.ErrUnsupportedChain):
		return "invalid"
	case errors.Is(err, interfaces.ErrSubmissionRejected):
		return "rejected"
	case errors.Is(err, interfaces.ErrConfirmationTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// submissionStatus maps the pipeline's error taxonomy to HTTP statuses.
func submissionStatus(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrInvalidAgentID):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrUnsupportedChain):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrSubmissionRejected):
		return http.StatusBadGateway
	case errors.Is(err, interfaces.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
