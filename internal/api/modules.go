package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/sync-hub/internal/device"
	"github.com/nerrad567/sync-hub/internal/module"
)

// headerModifiedAt carries a module's last-write time on reads.
const headerModifiedAt = "X-Modified-At"

// moduleContext resolves everything a module operation needs: the
// validated module id, the authenticated caller, and the target device
// on the caller's account. A false return means a response has already
// been written.
func (s *Server) moduleContext(w http.ResponseWriter, r *http.Request) (module.ID, *device.Device, *device.Device, bool) {
	id, err := module.ParseID(chi.URLParam(r, "moduleId"))
	if err != nil {
		writeBadRequest(w, "Invalid moduleId")
		return "", nil, nil, false
	}

	caller := s.verifyCaller(w, r)
	if caller == nil {
		return "", nil, nil, false
	}

	rawTarget := r.URL.Query().Get("device-id")
	if rawTarget == "" {
		writeBadRequest(w, "Target device id not supplied")
		return "", nil, nil, false
	}
	targetID, err := uuid.Parse(rawTarget)
	if err != nil {
		writeBadRequest(w, "Target device id not supplied")
		return "", nil, nil, false
	}

	target, err := s.devices.Get(targetID)
	if err != nil {
		writeNotFound(w, "Target device not found")
		return "", nil, nil, false
	}

	if caller.AccountID != target.AccountID {
		s.logger.Warn("cross-account module access rejected",
			"caller_id", caller.ID,
			"target_id", target.ID,
		)
		writeUnauthorized(w, "Devices don't share the same account")
		return "", nil, nil, false
	}

	return id, caller, target, true
}

// handleReadModule returns the latest payload of a module on the target
// device.
//
// GET /v1/module/{moduleId}?device-id=<target>
//
// Responds 204 when the module has never been written (or was deleted),
// otherwise 200 with the raw bytes and an X-Modified-At header carrying
// the last write time in HTTP date format.
func (s *Server) handleReadModule(w http.ResponseWriter, r *http.Request) {
	id, caller, target, ok := s.moduleContext(w, r)
	if !ok {
		return
	}

	read, err := s.modules.ReadModule(caller, target, id)
	if err != nil {
		s.logger.Error("module read failed", "module_id", id, "error", err)
		writeModuleError(w, err)
		return
	}

	if !read.Exists {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set(headerModifiedAt, read.ModifiedAt.UTC().Format(http.TimeFormat))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(read.Payload)
}

// handleWriteModule stores a payload as the latest value of a module on
// the target device, overwriting any previous value.
//
// POST /v1/module/{moduleId}?device-id=<target>
func (s *Server) handleWriteModule(w http.ResponseWriter, r *http.Request) {
	id, caller, target, ok := s.moduleContext(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "Failed to read payload")
		return
	}

	if err := s.modules.WriteModule(caller, target, id, payload); err != nil {
		s.logger.Error("module write failed", "module_id", id, "error", err)
		writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// handleDeleteModule removes a module from the target device. Deleting a
// module that does not exist succeeds.
//
// DELETE /v1/module/{moduleId}?device-id=<target>
func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	id, caller, target, ok := s.moduleContext(w, r)
	if !ok {
		return
	}

	if err := s.modules.DeleteModule(caller, target, id); err != nil {
		s.logger.Error("module delete failed", "module_id", id, "error", err)
		writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}
