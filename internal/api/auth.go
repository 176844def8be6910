package api

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/sync-hub/internal/device"
)

// headerDeviceID is the header identifying the caller's own device row,
// independent of the account id presented in Basic auth.
const headerDeviceID = "X-Device-ID"

// deviceIDFromHeader extracts the caller's device id from X-Device-ID.
//
// Returns uuid.Nil and false when the header is absent, blank, or not a
// valid UUID.
func deviceIDFromHeader(r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.Header.Get(headerDeviceID))
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// credentialsFromHeader parses Basic device credentials from the
// Authorization header: base64(accountId:devicePassword).
//
// Returns nil when the header is absent or malformed. Malformed
// credentials are treated the same as missing ones; the caller decides
// whether credentials were required.
func credentialsFromHeader(r *http.Request) *device.Credentials {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil
	}

	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return nil
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return nil
	}

	accountID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil
	}

	return &device.Credentials{
		AccountID: accountID,
		Password:  parts[1],
	}
}

// verifyCaller authenticates the calling device from X-Device-ID plus
// Basic credentials, writing the error response itself on failure.
//
// On success the device's last-seen timestamp is bumped and the caller's
// Device is returned. A nil Device means a response has already been
// written.
func (s *Server) verifyCaller(w http.ResponseWriter, r *http.Request) *device.Device {
	deviceID, ok := deviceIDFromHeader(r)
	if !ok {
		writeBadRequest(w, "X-Device-ID header is missing")
		return nil
	}

	creds := credentialsFromHeader(r)
	if creds == nil {
		writeBadRequest(w, "Device credentials are missing")
		return nil
	}

	dev, err := s.devices.Get(deviceID)
	if err != nil {
		writeNotFound(w, "Unknown device")
		return nil
	}

	if !dev.IsAuthorized(*creds) {
		s.logger.Warn("device credentials rejected",
			"device_id", deviceID,
			"path", r.URL.Path,
		)
		writeUnauthorized(w, "Device credentials not found or insufficient")
		return nil
	}

	if err := s.devices.Touch(dev.ID); err != nil {
		// Last-seen is best effort; the request itself proceeds.
		s.logger.Warn("failed to update device last-seen", "device_id", dev.ID, "error", err)
	}

	return dev
}
