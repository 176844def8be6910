// Package api provides the HTTP REST API for Sync Hub.
//
// It exposes the device-facing wire contract: account registration and
// deletion, share code creation, device listing and reset, and module
// blob read/write/delete. Clients are physical devices authenticating
// with Basic credentials (accountId:devicePassword) plus an X-Device-ID
// header identifying the caller's own device row.
//
// The server follows the same lifecycle pattern as the repositories:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
