package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/whalewatch/client"
	"github.com/brojonat/whalewatch/service/chains"
)

const maxHashLength = 128

// handleGetStatus returns a handler that relays the upstream status report.
// GET /api/v1/status
func handleGetStatus(api WhaleAlert, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := api.GetStatus(r.Context())
		if err != nil {
			writeUpstreamError(w, r, logger, "status", err)
			return
		}

		logger.Debug("status retrieved", "blockchain_count", status.BlockchainCount)
		writeJSON(w, status, http.StatusOK)
	})
}

// handleGetTransaction returns a handler that looks up one transaction by hash.
// GET /api/v1/transactions/{blockchain}/{hash}
func handleGetTransaction(api WhaleAlert, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blockchain := client.Blockchain(strings.ToLower(r.PathValue("blockchain")))
		hash := r.PathValue("hash")

		if len(hash) > maxHashLength {
			writeError(w, "hash too long", http.StatusBadRequest)
			return
		}
		if err := chains.ValidateHash(blockchain, hash); err != nil {
			logger.Debug("invalid hash", "blockchain", blockchain, "hash", hash, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		txns, err := api.GetTransaction(r.Context(), hash, blockchain)
		if err != nil {
			writeUpstreamError(w, r, logger, "transaction", err)
			return
		}

		writeJSON(w, map[string]interface{}{
			"transactions": txns,
			"count":        len(txns),
		}, http.StatusOK)
	})
}

// statusForError maps a Whale Alert failure onto the status this API answers
// with. Problems with our own credentials surface as 502 rather than 401/403.
func statusForError(err error) int {
	var apiErr *client.Error
	if !errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}

	switch apiErr.Kind {
	case client.KindBadRequest:
		return http.StatusBadRequest
	case client.KindNotFound:
		return http.StatusNotFound
	case client.KindTooManyRequests:
		return http.StatusTooManyRequests
	case client.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, endpoint string, err error) {
	code := statusForError(err)
	level := slog.LevelError
	if code < http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, "whale alert request failed", "endpoint", endpoint, "error", err, "status_code", code)
	writeError(w, err.Error(), code)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
