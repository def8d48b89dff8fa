package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/propvest/ledger/internal/escrow"
	"github.com/propvest/ledger/internal/ledger"
)

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeBadRequest(w, "invalid JSON")
		return false
	}
	return true
}

// requireWallets validates that every given value is a well-formed wallet.
func (s *Server) requireWallets(w http.ResponseWriter, wallets ...string) bool {
	for _, wallet := range wallets {
		if !validWallet(wallet) {
			s.writeError(w, ledger.ErrInvalidWallet)
			return false
		}
	}
	return true
}

func campaignParam(r *http.Request) escrow.Address {
	return escrow.Address(chi.URLParam(r, "campaign"))
}

func poolParam(r *http.Request) escrow.Address {
	return escrow.Address(chi.URLParam(r, "pool"))
}

type depositAccountRequest struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	var req depositAccountRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, wallet) {
		return
	}
	if req.Amount == 0 {
		s.writeError(w, ledger.ErrInvalidAmount)
		return
	}
	if err := s.cfg.OnRamp.Deposit(wallet, req.Amount); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"balance": s.cfg.OnRamp.AccountBalance(wallet)})
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	if !s.requireWallets(w, wallet) {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"balance": s.cfg.OnRamp.AccountBalance(wallet)})
}

type initializePlatformRequest struct {
	Admin  string `json:"admin"`
	Wallet string `json:"wallet"`
}

func (s *Server) handleInitializePlatform(w http.ResponseWriter, r *http.Request) {
	var req initializePlatformRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Admin, req.Wallet) {
		return
	}
	if err := s.svc.InitializePlatform(r.Context(), req.Admin, req.Wallet); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

func (s *Server) handleUpdatePlatformWallet(w http.ResponseWriter, r *http.Request) {
	var req initializePlatformRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Admin, req.Wallet) {
		return
	}
	if err := s.svc.UpdatePlatformWallet(r.Context(), req.Admin, req.Wallet); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleGetPlatform(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPlatform(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type whitelistRequest struct {
	Admin  string `json:"admin"`
	Wallet string `json:"wallet"`
}

func (s *Server) handleAddToWhitelist(w http.ResponseWriter, r *http.Request) {
	var req whitelistRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Admin, req.Wallet) {
		return
	}
	if err := s.svc.AddToWhitelist(r.Context(), req.Admin, req.Wallet); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "whitelisted"})
}

func (s *Server) handleRemoveFromWhitelist(w http.ResponseWriter, r *http.Request) {
	admin := r.URL.Query().Get("admin")
	wallet := chi.URLParam(r, "wallet")
	if !s.requireWallets(w, admin, wallet) {
		return
	}
	if err := s.svc.RemoveFromWhitelist(r.Context(), admin, wallet); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleIsWhitelisted(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	ok, err := s.svc.IsWhitelisted(r.Context(), wallet)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"whitelisted": ok})
}

type createCampaignRequest struct {
	Creator           string    `json:"creator"`
	PropertyID        string    `json:"property_id"`
	PropertyMint      string    `json:"property_mint"`
	FundingGoal       uint64    `json:"funding_goal"`
	PlatformEquityBps uint16    `json:"platform_equity_bps"`
	FundingDeadline   time.Time `json:"funding_deadline"`
	TokenPrice        uint64    `json:"token_price"`
	TotalTokens       uint64    `json:"total_tokens"`
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Creator, req.PropertyMint) {
		return
	}
	c, err := s.svc.CreateCampaign(r.Context(), ledger.CreateCampaignParams{
		Creator:           req.Creator,
		PropertyID:        req.PropertyID,
		PropertyMint:      req.PropertyMint,
		FundingGoal:       req.FundingGoal,
		PlatformEquityBps: req.PlatformEquityBps,
		FundingDeadline:   req.FundingDeadline,
		TokenPrice:        req.TokenPrice,
		TotalTokens:       req.TotalTokens,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := s.svc.ListCampaigns(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, campaigns)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCampaign(r.Context(), campaignParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

type investRequest struct {
	Investor string `json:"investor"`
	Amount   uint64 `json:"amount"`
}

func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Investor) {
		return
	}
	rec, err := s.svc.Invest(r.Context(), campaignParam(r), req.Investor, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleFinalizeCampaign(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Caller) {
		return
	}
	c, err := s.svc.FinalizeCampaign(r.Context(), campaignParam(r), req.Caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCancelCampaign(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Caller) {
		return
	}
	if err := s.svc.CancelCampaign(r.Context(), campaignParam(r), req.Caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type claimantRequest struct {
	Investor string `json:"investor"`
}

func (s *Server) handleClaimRefund(w http.ResponseWriter, r *http.Request) {
	var req claimantRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Investor) {
		return
	}
	amount, err := s.svc.ClaimRefund(r.Context(), campaignParam(r), req.Investor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

func (s *Server) handleClaimTokens(w http.ResponseWriter, r *http.Request) {
	var req claimantRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Investor) {
		return
	}
	tokens, err := s.svc.ClaimTokens(r.Context(), campaignParam(r), req.Investor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"tokens": tokens})
}

func (s *Server) handleListInvestorRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.ListInvestorRecords(r.Context(), campaignParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetInvestorRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.GetInvestorRecord(r.Context(), campaignParam(r), chi.URLParam(r, "investor"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

type initializePoolRequest struct {
	Authority     string `json:"authority"`
	PropertyID    string `json:"property_id"`
	PropertyMint  string `json:"property_mint"`
	FrequencyDays uint64 `json:"distribution_frequency_days"`
}

func (s *Server) handleInitializePool(w http.ResponseWriter, r *http.Request) {
	var req initializePoolRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Authority, req.PropertyMint) {
		return
	}
	p, err := s.svc.InitializePool(r.Context(), ledger.InitializePoolParams{
		Authority:     req.Authority,
		PropertyID:    req.PropertyID,
		PropertyMint:  req.PropertyMint,
		FrequencyDays: req.FrequencyDays,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPool(r.Context(), poolParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

type depositRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleDepositDividend(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Caller) {
		return
	}
	if err := s.svc.DepositDividend(r.Context(), poolParam(r), req.Caller, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}

func (s *Server) handleStartDistribution(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Caller) {
		return
	}
	dist, err := s.svc.StartDistribution(r.Context(), poolParam(r), req.Caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, dist)
}

type claimDividendRequest struct {
	User  string `json:"user"`
	Epoch uint64 `json:"epoch"`
}

func (s *Server) handleClaimDividend(w http.ResponseWriter, r *http.Request) {
	var req claimDividendRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.User) {
		return
	}
	amount, err := s.svc.ClaimDividend(r.Context(), poolParam(r), req.User, req.Epoch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

func (s *Server) handleGetClaimableAmount(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	epochStr := r.URL.Query().Get("epoch")
	epoch, err := strconv.ParseUint(epochStr, 10, 64)
	if err != nil {
		s.writeBadRequest(w, "invalid epoch")
		return
	}
	amount, err := s.svc.GetClaimableAmount(r.Context(), poolParam(r), user, epoch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]uint64{"amount": amount})
}

type updateAuthorityRequest struct {
	Caller       string `json:"caller"`
	NewAuthority string `json:"new_authority"`
}

func (s *Server) handleUpdateAuthority(w http.ResponseWriter, r *http.Request) {
	var req updateAuthorityRequest
	if !s.decode(w, r, &req) || !s.requireWallets(w, req.Caller, req.NewAuthority) {
		return
	}
	if err := s.svc.UpdateAuthority(r.Context(), poolParam(r), req.Caller, req.NewAuthority); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	epoch, err := strconv.ParseUint(chi.URLParam(r, "epoch"), 10, 64)
	if err != nil {
		s.writeBadRequest(w, "invalid epoch")
		return
	}
	dist, err := s.svc.GetDistribution(r.Context(), poolParam(r), epoch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dist)
}
