// Package registration implements the multi-step device-linking protocol.
//
// A device either founds a new account (no share code) or joins an
// existing one by presenting a one-time share code together with that
// account's credentials. The protocol's correctness properties live here:
// the device-id collision check runs before any code is spent, code
// consumption is exactly-once, and a consumed code is restored as a
// compensating action if anything after consumption fails.
package registration
