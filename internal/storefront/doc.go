// Package storefront talks to the comic storefront: catalog listing,
// issue metadata, manifest retrieval, and tile ciphertext fetches. It
// also manages the authenticated session whose secret feeds key
// derivation.
//
// The Client satisfies the pipeline's Fetcher and SecretProvider
// collaborator interfaces. Fetch failures are classified as transient
// (retryable: timeouts, 5xx, 429) or permanent through *FetchError.
package storefront
