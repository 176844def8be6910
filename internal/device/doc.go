// Package device owns the device entities of Sync Hub.
//
// A device is one physical client endpoint, identified by a caller-supplied
// 128-bit id that is unique across the whole server. On registration the
// server issues the device a high-entropy password; the device then
// authenticates every call with HTTP Basic auth (account id + password),
// verified with a constant-time comparison.
//
// Each device owns a directory under its account
// (devices/<device-id>/device.json) whose entity lock serialises all file
// I/O for that device, including its module blobs. A background sweep
// removes devices that have not been seen within the configured
// expiration.
package device
