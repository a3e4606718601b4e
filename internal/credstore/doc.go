// Package credstore keeps small secrets (the login email and password used for silent
// session renewal) encrypted at rest in a kvstore.Store.
//
// Entries are sealed with XChaCha20-Poly1305 under a key derived from a static passphrase.
// The entry name is bound to the ciphertext as associated data, so a value copied under a
// different name does not decrypt.
//
// The passphrase ships with the client, which makes this an obfuscation boundary rather than
// real confidentiality against anyone holding the binary:
//
//	cipher, err := credstore.NewCipher(passphrase)
//	store := credstore.New(kv, cipher)
//	err = store.SetItem(ctx, "userPassword", password)
//
// Entries that fail to decrypt (corrupted, or written under another passphrase) are deleted on
// read and reported as absent.
package credstore
