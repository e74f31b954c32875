// Package server exposes valuation reports over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iwvelando/finance-valuation/internal/config"
	"github.com/iwvelando/finance-valuation/internal/report"
	"github.com/iwvelando/finance-valuation/internal/telemetry"
	"github.com/iwvelando/finance-valuation/pkg/constants"
	"github.com/iwvelando/finance-valuation/pkg/output"
)

// configKeyOrder is the top-level key order of exported configurations.
var configKeyOrder = []string{"company", "assumptions", "scenarios", "sensitivity", "thresholds", "workers", "logging", "output"}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	workers       int
	metrics       *telemetry.Metrics
	gatherer      prometheus.Gatherer
}

// Option configures the handler.
type Option func(*handler)

// WithMetrics instruments valuations with m and serves g on /metrics.
func WithMetrics(m *telemetry.Metrics, g prometheus.Gatherer) Option {
	return func(h *handler) {
		h.metrics = m
		h.gatherer = g
	}
}

// WithWorkers overrides the worker count of configurations that leave it unset.
func WithWorkers(n int) Option {
	return func(h *handler) {
		h.workers = n
	}
}

// NewHandler constructs the HTTP handler that serves the valuation API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	// Valuation API endpoint (file upload)
	mux.HandleFunc("/api/valuation", h.handleValuation)

	// Valuation API endpoint for editor-driven updates
	mux.HandleFunc("/api/editor/valuation", h.handleValuationEditor)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/healthz", h.handleHealth)

	if h.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

type valuationResponse struct {
	Report     *report.Report         `json:"report"`
	CSV        string                 `json:"csv"`
	Duration   string                 `json:"duration"`
	Config     map[string]interface{} `json:"config,omitempty"`
	ConfigYAML string                 `json:"configYaml,omitempty"`
}

func (h *handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValuation"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	h.runValuation(w, r, configBytes, configMap, start, op)
}

func (h *handler) handleValuationEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValuationEditor"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	configPayload, err := decodeConfigPayload(r.Body)
	if err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		h.respondError(w, status, err.Error(), op)
		return
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse configuration: %v", err), op)
		return
	}

	h.runValuation(w, r, configBytes, configMap, start, op)
}

// decodeConfigPayload accepts {"config": {...}} or a bare configuration object.
func decodeConfigPayload(body io.Reader) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if payload == nil {
		return make(map[string]interface{}), nil
	}

	rawConfig, ok := payload["config"]
	if !ok {
		return payload, nil
	}
	cfgMap, ok := rawConfig.(map[string]interface{})
	if !ok {
		return nil, errors.New("invalid config payload: expected object")
	}
	return cfgMap, nil
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	payload, err := decodeConfigPayload(r.Body)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// marshalOrderedConfigYAML writes known sections in configKeyOrder and any
// others alphabetically after them.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	mapNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	appendItem := func(key string) error {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(payload[key]); err != nil {
			return err
		}
		mapNode.Content = append(mapNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			valueNode,
		)
		return nil
	}

	seen := make(map[string]struct{}, len(configKeyOrder))
	for _, key := range configKeyOrder {
		seen[key] = struct{}{}
		if _, ok := payload[key]; !ok {
			continue
		}
		if err := appendItem(key); err != nil {
			return nil, err
		}
	}

	remaining := make([]string, 0, len(payload))
	for key := range payload {
		if _, ok := seen[key]; !ok {
			remaining = append(remaining, key)
		}
	}
	sort.Strings(remaining)
	for _, key := range remaining {
		if err := appendItem(key); err != nil {
			return nil, err
		}
	}

	return yaml.Marshal(mapNode)
}

func (h *handler) runValuation(w http.ResponseWriter, r *http.Request, configBytes []byte, configMap map[string]interface{}, start time.Time, op string) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	if cfg.Workers == 0 {
		cfg.Workers = h.workers
	}

	rep, err := report.GetValuation(r.Context(), h.logger, cfg, h.metrics)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute valuation: %v", err), op)
		return
	}

	elapsed := time.Since(start)

	response := valuationResponse{
		Report:     rep,
		CSV:        output.CsvString(rep),
		Duration:   elapsed.String(),
		Config:     configMap,
		ConfigYAML: string(configBytes),
	}

	h.logger.Info("valuation computed",
		zap.String("op", op),
		zap.String("company", rep.Company),
		zap.String("status", string(rep.Valuation.Status)),
		zap.Int("warnings", len(rep.Warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	for key, value := range result {
		result[key] = stringKeys(value)
	}
	return result, nil
}

// stringKeys converts nested YAML mappings with non-string keys, such as
// unquoted fiscal years, into JSON-encodable maps.
func stringKeys(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = stringKeys(item)
		}
		return out
	case map[string]interface{}:
		for key, item := range v {
			v[key] = stringKeys(item)
		}
		return v
	case []interface{}:
		for i, item := range v {
			v[i] = stringKeys(item)
		}
		return v
	default:
		return v
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("valuation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}
