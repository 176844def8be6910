// Package account owns the account entities of Sync Hub.
//
// An account is the unit of sharing: every device belongs to exactly one
// account, and devices on the same account may read and write each other's
// modules. Accounts are persisted as one directory per account under
// <data_path>/accounts/, holding the account descriptor, the devices
// subtree, and the share codes.
//
// The repository keeps all accounts in memory, guarded by a narrow lock
// covering only index mutations. A background sweep removes accounts that
// have had no devices for longer than the configured GC interval.
package account
