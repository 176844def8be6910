// Package storage provides the shared persistence helpers used by the
// entity repositories: directory creation and JSON descriptor read/write.
//
// Every entity owns a directory whose lifetime equals the entity's
// lifetime; the descriptor file inside it is the authoritative record that
// the boot-time load step scans for. Unreadable descriptors are skipped
// with a warning by their repositories, never treated as fatal.
package storage
