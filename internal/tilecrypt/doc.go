// Package tilecrypt decrypts individual tile payloads.
//
// Each tile is decrypted with key material derived for exactly that tile.
// Integrity failures are classified so the orchestrator can react
// correctly: a ciphertext checksum mismatch means the fetched bytes are
// corrupt and a re-fetch may succeed, while an authentication or padding
// failure on verified ciphertext means the key is wrong and the page
// cannot be recovered with the current scheme. Failed decrypts never leak
// partial plaintext.
package tilecrypt
