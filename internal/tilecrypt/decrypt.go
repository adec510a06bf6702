package tilecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/noxpand/retile/internal/keyderive"
	"github.com/noxpand/retile/internal/manifest"
)

// gcmNonceSize is the portion of the derived IV consumed as a GCM nonce.
const gcmNonceSize = 12

// Decrypt turns one tile's ciphertext into plaintext image bytes.
//
// The ciphertext checksum from the manifest, when present, is verified
// before any decryption: a mismatch is classified KindCorrupt (re-fetch).
// Once the ciphertext is known intact, cipher-level failures (GCM tag,
// CBC padding) are classified KindWrongKey. Without a checksum, GCM
// failures are still wrong-key (the mode authenticates), while CBC
// padding failures are reported as corruption so the orchestrator retries
// a fetch before giving up on the page.
func Decrypt(ciphertext []byte, km keyderive.KeyMaterial, spec manifest.TileSpec, mode manifest.CipherMode) ([]byte, error) {
	if len(km.Key) != keyderive.KeySize || len(km.IV) != keyderive.IVSize {
		return nil, ErrBadKeyMaterial
	}

	verified := false
	if len(spec.Checksum) > 0 {
		sum := sha256.Sum256(ciphertext)
		if !hmac.Equal(sum[:], spec.Checksum) {
			return nil, &DecryptError{Kind: KindCorrupt, Reason: "ciphertext checksum mismatch"}
		}
		verified = true
	}

	var (
		plaintext []byte
		err       error
	)
	switch mode {
	case manifest.CipherAESGCM:
		plaintext, err = openGCM(ciphertext, km)
	case manifest.CipherAESCBC:
		plaintext, err = openCBC(ciphertext, km, verified)
	default:
		return nil, &DecryptError{Kind: KindWrongKey, Reason: fmt.Sprintf("unsupported cipher mode %s", mode)}
	}
	if err != nil {
		return nil, err
	}

	if len(plaintext) != spec.Size {
		// Authenticated plaintext of the wrong size means the manifest
		// and the key scheme disagree about this tile.
		return nil, &DecryptError{
			Kind:   KindWrongKey,
			Reason: fmt.Sprintf("plaintext size %d, manifest declares %d", len(plaintext), spec.Size),
		}
	}
	return plaintext, nil
}

// openGCM decrypts AES-256-GCM ciphertext. The mode is authenticated, so
// any open failure means the key (or the whole payload) is wrong.
func openGCM(ciphertext []byte, km keyderive.KeyMaterial) ([]byte, error) {
	block, err := aes.NewCipher(km.Key)
	if err != nil {
		return nil, ErrBadKeyMaterial
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrBadKeyMaterial
	}
	if len(ciphertext) < gcm.Overhead() {
		return nil, &DecryptError{Kind: KindCorrupt, Reason: "ciphertext shorter than GCM tag"}
	}
	plaintext, err := gcm.Open(nil, km.IV[:gcmNonceSize], ciphertext, nil)
	if err != nil {
		return nil, &DecryptError{Kind: KindWrongKey, Reason: "GCM authentication failed"}
	}
	return plaintext, nil
}

// openCBC decrypts AES-256-CBC ciphertext and strips PKCS#7 padding.
// verified tells whether the ciphertext survived a checksum comparison;
// it decides how a padding failure is classified.
func openCBC(ciphertext []byte, km keyderive.KeyMaterial, verified bool) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, &DecryptError{Kind: KindCorrupt, Reason: "ciphertext is not block-aligned"}
	}
	block, err := aes.NewCipher(km.Key)
	if err != nil {
		return nil, ErrBadKeyMaterial
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, km.IV).CryptBlocks(plaintext, ciphertext)

	unpadded, ok := pkcs7Unpad(plaintext)
	if !ok {
		kind := KindWrongKey
		if !verified {
			kind = KindCorrupt
		}
		return nil, &DecryptError{Kind: kind, Reason: "invalid PKCS#7 padding"}
	}
	return unpadded, nil
}

// pkcs7Unpad strips PKCS#7 padding, reporting whether it was well-formed.
func pkcs7Unpad(data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}

// Seal encrypts plaintext the way the storefront does. It exists for the
// fixture generator and round-trip tests; the pipeline itself only ever
// decrypts.
func Seal(plaintext []byte, km keyderive.KeyMaterial, mode manifest.CipherMode) ([]byte, error) {
	if len(km.Key) != keyderive.KeySize || len(km.IV) != keyderive.IVSize {
		return nil, ErrBadKeyMaterial
	}
	block, err := aes.NewCipher(km.Key)
	if err != nil {
		return nil, ErrBadKeyMaterial
	}

	switch mode {
	case manifest.CipherAESGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, ErrBadKeyMaterial
		}
		return gcm.Seal(nil, km.IV[:gcmNonceSize], plaintext, nil), nil
	case manifest.CipherAESCBC:
		pad := aes.BlockSize - len(plaintext)%aes.BlockSize
		padded := make([]byte, len(plaintext)+pad)
		copy(padded, plaintext)
		for i := len(plaintext); i < len(padded); i++ {
			padded[i] = byte(pad)
		}
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, km.IV).CryptBlocks(out, padded)
		return out, nil
	default:
		return nil, fmt.Errorf("tilecrypt: unsupported cipher mode %s", mode)
	}
}
