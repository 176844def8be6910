package registration

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nerrad567/sync-hub/internal/account"
	"github.com/nerrad567/sync-hub/internal/device"
	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
	"github.com/nerrad567/sync-hub/internal/share"
)

// Service implements the device-linking protocol.
//
// It is a stateless orchestration over the account, device, and share
// repositories: either a brand-new account is created for the device, or
// the device joins an existing account by spending a one-time share code.
// A spent code is restored whenever a later step fails, so a code is
// never silently wasted by a failure downstream of its consumption.
type Service struct {
	accounts *account.Repository
	devices  *device.Repository
	shares   *share.Repository
	logger   *logging.Logger
}

// NewService creates the linking service.
func NewService(accounts *account.Repository, devices *device.Repository, shares *share.Repository, logger *logging.Logger) *Service {
	return &Service{
		accounts: accounts,
		devices:  devices,
		shares:   shares,
		logger:   logger.With("component", "registration"),
	}
}

// Register links a new device and returns it with its freshly issued
// credentials.
//
// With no share code, a new account is created for the device; creds must
// then be absent. With a share code, creds must identify the account the
// share belongs to; the code is consumed exactly once and restored if
// device creation fails afterwards.
//
// The device id is checked first: re-registering an existing id fails
// before any share code is touched.
func (s *Service) Register(ctx context.Context, deviceID uuid.UUID, shareCode string, creds *device.Credentials, label string) (*device.Device, error) {
	if _, err := s.devices.Get(deviceID); err == nil {
		return nil, ErrDeviceRegistered
	}

	var (
		acc      *account.Account
		consumed *share.Share
	)

	if shareCode == "" {
		if creds != nil {
			return nil, ErrCredentialsWithoutShare
		}
		newAcc, err := s.accounts.Create(ctx)
		if err != nil {
			return nil, err
		}
		acc = newAcc
		s.logger.Info("new account for device", "account_id", acc.ID, "device_id", deviceID)
	} else {
		resolved, err := s.resolveShare(ctx, shareCode, creds)
		if err != nil {
			return nil, err
		}
		acc = resolved.account
		consumed = resolved.share
	}

	dev, err := s.devices.Create(ctx, acc, deviceID, label)
	if err != nil {
		if consumed != nil {
			if restoreErr := s.shares.Restore(consumed); restoreErr != nil {
				s.logger.Error("share restore failed after device creation error",
					"share_id", consumed.ID, "error", restoreErr)
			}
		}
		return nil, err
	}

	s.logger.Info("device registered", "device_id", dev.ID, "account_id", acc.ID)
	return dev, nil
}

type resolvedShare struct {
	account *account.Account
	share   *share.Share
}

// resolveShare validates and spends a share code, returning the target
// account. If the account has vanished after consumption the share is
// restored before the failure propagates.
func (s *Service) resolveShare(ctx context.Context, code string, creds *device.Credentials) (resolvedShare, error) {
	if creds == nil {
		return resolvedShare{}, ErrCredentialsRequired
	}

	sh, err := s.shares.Get(code)
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			return resolvedShare{}, ErrInvalidShare
		}
		return resolvedShare{}, err
	}
	if sh.AccountID != creds.AccountID {
		s.logger.Warn("share code presented with mismatched account",
			"share_id", sh.ID, "presented_account", creds.AccountID)
		return resolvedShare{}, ErrInvalidShare
	}

	if !s.shares.Consume(code) {
		return resolvedShare{}, ErrShareRace
	}

	acc, err := s.accounts.Get(sh.AccountID)
	if err != nil {
		if restoreErr := s.shares.Restore(sh); restoreErr != nil {
			s.logger.Error("share restore failed after account lookup",
				"share_id", sh.ID, "error", restoreErr)
		}
		return resolvedShare{}, ErrAccountVanished
	}

	return resolvedShare{account: acc, share: sh}, nil
}
