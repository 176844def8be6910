package api

import (
	"net/http"

	"github.com/google/uuid"
)

// registerResponse is the payload returned on successful device registration.
//
// The account id key is "account" and the password is returned exactly
// once, here; it is never retrievable again.
type registerResponse struct {
	Account  uuid.UUID `json:"account"`
	Password string    `json:"password"`
}

// shareResponse carries a freshly minted share code.
type shareResponse struct {
	Code string `json:"code"`
}

// handleRegister creates a new account for the calling device, or links
// the device into an existing account when a share code is supplied.
//
// POST /v1/account?share=<code>
//
// The caller identifies its device with X-Device-ID. Credentials are
// optional: present together with a share code they select the account
// to join; present without a share code the request is rejected.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDFromHeader(r)
	if !ok {
		writeBadRequest(w, "X-Device-ID header is missing")
		return
	}

	shareCode := r.URL.Query().Get("share")
	creds := credentialsFromHeader(r)
	label := r.Header.Get("User-Agent")

	dev, err := s.registration.Register(r.Context(), deviceID, shareCode, creds, label)
	if err != nil {
		s.logger.Warn("device registration rejected",
			"device_id", deviceID,
			"has_share", shareCode != "",
			"has_credentials", creds != nil,
			"error", err,
		)
		writeRegistrationError(w, err)
		return
	}

	s.logger.Info("device registered",
		"device_id", dev.ID,
		"account_id", dev.AccountID,
		"password", dev.RedactedPassword(),
	)
	writeJSON(w, http.StatusOK, registerResponse{
		Account:  dev.AccountID,
		Password: dev.Password,
	})
}

// handleDeleteAccount deletes the calling device's account and everything
// under it.
//
// DELETE /v1/account
//
// Shares are consumed first so the codes die with the account, then the
// device index entries, then the account directory itself.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	dev := s.verifyCaller(w, r)
	if dev == nil {
		return
	}

	accountID := dev.AccountID
	s.shares.RemoveForAccount(accountID)
	if err := s.devices.DeleteForAccount(accountID); err != nil {
		s.logger.Error("failed to delete account devices", "account_id", accountID, "error", err)
		writeInternalError(w, "Account deletion failed")
		return
	}
	if err := s.accounts.Delete(r.Context(), accountID); err != nil {
		s.logger.Error("failed to delete account", "account_id", accountID, "error", err)
		writeInternalError(w, "Account deletion failed")
		return
	}

	s.logger.Info("account deleted", "account_id", accountID)
	writeJSON(w, http.StatusOK, nil)
}

// handleCreateShare mints a one-time share code for the calling device's
// account.
//
// POST /v1/account/share
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	dev := s.verifyCaller(w, r)
	if dev == nil {
		return
	}

	acc, err := s.accounts.Get(dev.AccountID)
	if err != nil {
		s.logger.Error("account missing for authorised device",
			"account_id", dev.AccountID,
			"device_id", dev.ID,
		)
		writeInternalError(w, "Share code creation failed")
		return
	}

	sh, err := s.shares.Create(r.Context(), acc)
	if err != nil {
		s.logger.Error("failed to create share", "account_id", acc.ID, "error", err)
		writeInternalError(w, "Share code creation failed")
		return
	}

	s.logger.Info("share created", "account_id", acc.ID, "share_id", sh.ID)
	writeJSON(w, http.StatusOK, shareResponse{Code: sh.Code})
}
