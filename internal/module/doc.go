// Package module stores the opaque data blobs that devices sync through
// the hub.
//
// A module is identified by (owning device, module id) where the id is a
// caller-chosen dotted lowercase string like "eu.darken.meta". Ids are
// hashed to fixed-length names before touching the filesystem. Storage is
// latest-value only: a write replaces the previous record, and reads of a
// missing module return an empty result rather than an error.
//
// All operations run under the owning device's entity lock. A background
// sweep reclaims modules whose metadata has not been touched within the
// configured expiration.
package module
