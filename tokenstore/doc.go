// Package tokenstore provides persistent storage abstractions for OAuth token
// records, keyed by principal.
//
// Five backends with different security and deployment tradeoffs:
//   - File: local filesystem storage with atomic writes and secure permissions
//   - Env: read-only environment variable access (static tokens only)
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Memory: process-local storage for tests and ephemeral use
//   - Redis: shared storage for server deployments with many principals
//
// The OAuth lifecycle requires writable storage; env storage only serves
// static token authentication. Stored values are opaque bytes; the lifecycle
// manager owns the record encoding.
package tokenstore
