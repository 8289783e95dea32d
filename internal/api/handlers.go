package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/tron"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// handleBlacklistAdd handles POST /api/blacklist
func (s *Server) handleBlacklistAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address     string `json:"address"`
		Reason      string `json:"reason,omitempty"`
		AddedBy     string `json:"addedBy,omitempty"`
		Provisional bool   `json:"provisional,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !tron.IsValidAddress(req.Address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}

	// validity is checked above, so a false here is a storage failure
	if !s.blacklist.Add(r.Context(), req.Address, req.Reason, req.AddedBy, types.EntryManual, req.Provisional) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to add blacklist entry", nil)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"address": req.Address})
}

// handleBlacklistCheck handles GET /api/blacklist/:address
func (s *Server) handleBlacklistCheck(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !tron.IsValidAddress(address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}

	entry := s.blacklist.Check(r.Context(), address)
	if entry == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Address is not blacklisted", nil)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// handleBlacklistRemove handles DELETE /api/blacklist/:address
func (s *Server) handleBlacklistRemove(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !tron.IsValidAddress(address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}

	if !s.blacklist.Remove(r.Context(), address) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to remove blacklist entry", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"address": address})
}

// parseRole reads a role from a query parameter or request field.
func parseRole(value string) (types.Role, bool) {
	role := types.Role(value)
	return role, role.Valid()
}

// handleWhitelistAddAddress handles POST /api/whitelist/addresses
func (s *Server) handleWhitelistAddAddress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address     string `json:"address"`
		Role        string `json:"role"`
		Reason      string `json:"reason,omitempty"`
		AddedBy     string `json:"addedBy,omitempty"`
		Provisional bool   `json:"provisional,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !tron.IsValidAddress(req.Address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Role must be payment or provider", nil)
		return
	}

	if !s.whitelist.AddAddress(r.Context(), req.Address, role, req.Reason, req.AddedBy, req.Provisional) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to add whitelist entry", nil)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"address": req.Address,
		"role":    string(role),
	})
}

// handleWhitelistCheckAddress handles GET /api/whitelist/addresses/:address?role=
func (s *Server) handleWhitelistCheckAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !tron.IsValidAddress(address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}
	role, ok := parseRole(r.URL.Query().Get("role"))
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Role must be payment or provider", nil)
		return
	}

	entry := s.whitelist.CheckAddress(r.Context(), address, role)
	if entry == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Address is not whitelisted for this role", nil)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// handleWhitelistRemoveAddress handles DELETE /api/whitelist/addresses/:address?role=
func (s *Server) handleWhitelistRemoveAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !tron.IsValidAddress(address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}
	role, ok := parseRole(r.URL.Query().Get("role"))
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Role must be payment or provider", nil)
		return
	}

	if !s.whitelist.RemoveAddress(r.Context(), address, role) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to remove whitelist entry", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"role":    string(role),
	})
}

// handleWhitelistAddPair handles POST /api/whitelist/pairs
func (s *Server) handleWhitelistAddPair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payment     string `json:"payment"`
		Provider    string `json:"provider"`
		AddedBy     string `json:"addedBy,omitempty"`
		Provisional bool   `json:"provisional,omitempty"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !tron.IsValidAddress(req.Payment) || !tron.IsValidAddress(req.Provider) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}

	if !s.whitelist.AddPair(r.Context(), req.Payment, req.Provider, req.AddedBy, req.Provisional) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to add whitelist pair", nil)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"payment":  req.Payment,
		"provider": req.Provider,
	})
}

// handleWhitelistCheckPair handles GET /api/whitelist/pairs/:payment/:provider
func (s *Server) handleWhitelistCheckPair(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	payment, provider := vars["payment"], vars["provider"]
	if !tron.IsValidAddress(payment) || !tron.IsValidAddress(provider) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}

	pair := s.whitelist.CheckPair(r.Context(), payment, provider)
	if pair == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Pair is not whitelisted", nil)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// handleEvaluate handles POST /api/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payment  string `json:"payment"`
		Provider string `json:"provider"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if !tron.IsValidAddress(req.Payment) || !tron.IsValidAddress(req.Provider) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidAddress, "Not a valid Tron address", nil)
		return
	}

	respondJSON(w, http.StatusOK, s.evaluator.Evaluate(r.Context(), req.Payment, req.Provider))
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.stats.Snapshot(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).WithError(err).Error("failed to gather stats")
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to gather stats", nil)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// handleGetAssociationSetting handles GET /api/settings/association
func (s *Server) handleGetAssociationSetting(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{
		"enabled": s.settings.IsAssociationEnabled(r.Context()),
	})
}

// handlePutAssociationSetting handles PUT /api/settings/association
func (s *Server) handlePutAssociationSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if !s.settings.SetAssociationEnabled(r.Context(), req.Enabled) {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to update setting", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}
