package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mr-tron/base58"

	"github.com/propvest/ledger/internal/ledger"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps a ledger error to an HTTP status. Unknown errors are
// internal; the client gets no detail for those.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, ledger.ErrNotWhitelisted):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrPlatformInitialized),
		errors.Is(err, ledger.ErrCampaignExists),
		errors.Is(err, ledger.ErrPoolExists),
		errors.Is(err, ledger.ErrAlreadyClaimed),
		errors.Is(err, ledger.ErrAlreadyRefunded),
		errors.Is(err, ledger.ErrTokensAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrCampaignNotActive),
		errors.Is(err, ledger.ErrCampaignExpired),
		errors.Is(err, ledger.ErrCannotFinalizeYet),
		errors.Is(err, ledger.ErrCampaignNotCancelled),
		errors.Is(err, ledger.ErrCampaignNotFunded),
		errors.Is(err, ledger.ErrNothingToRefund),
		errors.Is(err, ledger.ErrNoTokensToClaim),
		errors.Is(err, ledger.ErrNoDividends),
		errors.Is(err, ledger.ErrNoTokensInCirculation),
		errors.Is(err, ledger.ErrNoTokensHeld),
		errors.Is(err, ledger.ErrNothingToClaim),
		errors.Is(err, ledger.ErrInsufficientTokens):
		return http.StatusUnprocessableEntity
	}
	if ledger.Code(err) != "INTERNAL" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: ledger.Code(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		s.log.Error("internal error", "error", err)
		resp.Message = "internal error"
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: message})
}

// validWallet reports whether w is a base58-encoded 32-byte public key.
func validWallet(w string) bool {
	b, err := base58.Decode(w)
	return err == nil && len(b) == 32
}
