package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/sync-hub/internal/device"
)

// devicesResponse lists the devices on the caller's account.
type devicesResponse struct {
	Devices []deviceInfo `json:"devices"`
}

// deviceInfo is one device row as shown to other devices on the account.
// The password is never included.
type deviceInfo struct {
	ID      uuid.UUID `json:"id"`
	Label   string    `json:"label"`
	Version string    `json:"version"`
}

// resetRequest optionally narrows a reset to specific devices.
// An empty target list means every device on the account.
type resetRequest struct {
	Targets []uuid.UUID `json:"targets"`
}

// handleListDevices returns all devices on the caller's account.
//
// GET /v1/devices
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	caller := s.verifyCaller(w, r)
	if caller == nil {
		return
	}

	devices := s.devices.List(caller.AccountID)
	infos := make([]deviceInfo, 0, len(devices))
	for _, dev := range devices {
		meta := dev.Meta()
		infos = append(infos, deviceInfo{
			ID:      dev.ID,
			Label:   meta.Label,
			Version: meta.Version,
		})
	}

	writeJSON(w, http.StatusOK, devicesResponse{Devices: infos})
}

// handleDeleteDevice removes one device from the caller's account,
// including its modules directory.
//
// DELETE /v1/devices/{deviceId}
//
// A device may delete itself.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	caller := s.verifyCaller(w, r)
	if caller == nil {
		return
	}

	targetID, err := uuid.Parse(chi.URLParam(r, "deviceId"))
	if err != nil {
		writeBadRequest(w, "Missing or invalid deviceId")
		return
	}

	target, err := s.devices.Get(targetID)
	if err != nil {
		writeNotFound(w, "Device not found")
		return
	}
	if target.AccountID != caller.AccountID {
		writeUnauthorized(w, "Device does not belong to your account")
		return
	}

	if err := s.devices.Delete(targetID); err != nil {
		s.logger.Error("failed to delete device", "device_id", targetID, "error", err)
		writeInternalError(w, "Failed to delete device")
		return
	}

	s.logger.Info("device deleted", "device_id", targetID, "account_id", caller.AccountID)
	writeJSON(w, http.StatusOK, nil)
}

// handleResetDevices clears the module data of the given devices, or of
// every device on the caller's account when no targets are named.
//
// POST /v1/devices/reset
//
// The devices themselves stay registered; only their modules are wiped.
func (s *Server) handleResetDevices(w http.ResponseWriter, r *http.Request) {
	caller := s.verifyCaller(w, r)
	if caller == nil {
		return
	}

	// An empty body is a valid "reset everything" request.
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "Invalid reset request")
		return
	}

	var targets []*device.Device
	for _, id := range req.Targets {
		target, err := s.devices.Get(id)
		if err != nil {
			writeNotFound(w, "Target device not found")
			return
		}
		if target.AccountID != caller.AccountID {
			writeUnauthorized(w, "Devices do not belong to your account")
			return
		}
		targets = append(targets, target)
	}

	if len(targets) == 0 {
		targets = s.devices.List(caller.AccountID)
	}

	if err := s.modules.Clear(caller, targets); err != nil {
		s.logger.Error("failed to reset devices", "account_id", caller.AccountID, "error", err)
		writeInternalError(w, "Failed to reset devices")
		return
	}

	s.logger.Info("devices reset", "account_id", caller.AccountID, "count", len(targets))
	writeJSON(w, http.StatusOK, nil)
}
