// Package imagemeta inspects assembled page images for embedded
// metadata. Storefronts stamp purchaser-identifying EXIF tags into
// tiles, and the audit surfaces those tags before pages are archived.
package imagemeta
