// Package vault is the encrypted credential store: a tree of groups and
// entries persisted as a single sealed container file.
//
// # Container
//
// The file layout is
//
//	"KBV1" | salt (16) | key verifier (32) | nonce (12) | ciphertext
//
// where the key is derived from the master secret with Argon2id and the
// ciphertext is AES-256-GCM over a zstd-compressed CBOR document. The
// verifier lets Open report ErrWrongSecret separately from ErrCorrupt.
//
// # Usage
//
//	v, err := vault.Open(path, secret)
//	g := v.FindGroup("Work")
//	e := v.AddEntry(g, "gmail", "alice", "s3cr3t", "")
//	err = v.Save()
//
// All mutations happen in memory; Save is the only call that touches disk.
// A Vault is not safe for concurrent use.
package vault
