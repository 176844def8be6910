// Package share owns the one-time linking codes of Sync Hub.
//
// A share code is a capability: whoever presents it may register one new
// device into the issuing account. Each code is valid for at most one
// successful consumption and expires after a configured TTL regardless of
// use. Consumption is exactly-once under concurrency; a consumed code can
// be restored as a compensating action when the registration it paid for
// fails downstream.
//
// Shares are persisted one file per share under
// accounts/<account-id>/shares/. Two background sweeps run: one removes
// codes past their TTL, the other drops in-memory entries whose backing
// file vanished (crash mid-write), reconciling memory with disk without a
// restart.
package share
