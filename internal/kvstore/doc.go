// Package kvstore provides the persistent key-value medium that holds session state.
//
// Supports three backends with different security and deployment tradeoffs:
//   - File: a single JSON document on the local filesystem with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Memory: process-local storage for tests and ephemeral sessions
//
// Values are stored as-is. Callers that need confidentiality (cached credentials) encrypt
// before writing, see package credstore.
package kvstore
