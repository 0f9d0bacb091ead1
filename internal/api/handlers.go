package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/discovery"
	"github.com/raaihank/pii-scanner/internal/privacy"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// scanResponse wraps a result the way existing dashboards expect
type scanResponse struct {
	Results *discovery.ScanResult `json:"results"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	cfg := s.currentConfig()
	engineCfg := s.engine.Config()

	info := map[string]interface{}{
		"name":           "pii-scanner",
		"version":        Version,
		"uptime":         time.Since(s.started).Round(time.Second).String(),
		"pii_types":      s.engine.Registry().Len(),
		"concurrency":    engineCfg.Concurrency,
		"resolve_owners": engineCfg.ResolveOwners,
		"rate_limit":     cfg.RateLimit.Enabled,
		"websocket":      s.wsHub != nil && cfg.WebSocket.Enabled,
	}
	if s.wsHub != nil {
		info["websocket_clients"] = s.wsHub.GetStats().ActiveConnections
	}
	writeJSON(w, http.StatusOK, info)
}

// handlePIITypes lists every registered pattern with its bucket
func (s *Server) handlePIITypes(w http.ResponseWriter, r *http.Request) {
	types := s.engine.Registry().Describe()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pii_types":  types,
		"categories": privacy.Categories(),
	})
}

// handleFullScan scans every table visible to the connection
func (s *Server) handleFullScan(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, false)
}

// handleTableScan scans the single table named in table_name
func (s *Server) handleTableScan(w http.ResponseWriter, r *http.Request) {
	s.runScan(w, r, true)
}

// handleMetadataClassify classifies every table by column names only
func (s *Server) handleMetadataClassify(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)

	req, err := decodeScanRequest(r, false)
	if err != nil {
		s.writeError(w, requestID, err, req)
		return
	}

	log.Info("Metadata classification requested",
		zap.String("target", req.Connection.String()),
		zap.Strings("pii_types", req.AllowedTypes),
		zap.String("client_id", req.ClientID))

	result, err := s.engine.ClassifyMetadata(r.Context(), req)
	if err != nil {
		s.writeError(w, requestID, err, req)
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{Results: result})
}

func (s *Server) runScan(w http.ResponseWriter, r *http.Request, singleTable bool) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)

	req, err := decodeScanRequest(r, singleTable)
	if err != nil {
		s.writeError(w, requestID, err, req)
		return
	}

	log.Info("Scan requested",
		zap.String("target", req.Connection.String()),
		zap.Strings("tables", req.Tables),
		zap.Strings("pii_types", req.AllowedTypes),
		zap.String("client_id", req.ClientID))

	result, err := s.engine.RunScan(r.Context(), req)
	if err != nil {
		s.writeError(w, requestID, err, req)
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{Results: result})
}

// statusFor maps an error kind to the HTTP status reported to callers
func statusFor(kind scanerr.Kind) int {
	switch kind {
	case scanerr.KindConfiguration:
		return http.StatusBadRequest
	case scanerr.KindConnectivity:
		return http.StatusBadGateway
	case scanerr.KindQuery:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, err error, req discovery.ScanRequest) {
	kind := scanerr.KindOf(err)
	writeJSON(w, statusFor(kind), errorResponse{
		Error:     scrub(err.Error(), req.Connection),
		Kind:      kind.String(),
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
