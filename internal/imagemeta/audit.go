package imagemeta

import (
	exif "github.com/dsoprea/go-exif/v3"
)

// Tag is a single EXIF entry found in an image.
type Tag struct {
	Name  string
	Value string
}

// Audit is the result of scanning one image for embedded metadata.
type Audit struct {
	// Tags holds every EXIF entry found, in file order.
	Tags []Tag
	// Identifying holds the subset of tag names that can tie the
	// image to a purchaser or device.
	Identifying []string
}

// Clean reports whether the image carries no EXIF metadata at all.
func (a *Audit) Clean() bool {
	return len(a.Tags) == 0
}

// identifyingTags are EXIF tag names that storefronts are known to use
// for per-purchase watermarking, plus generic device identifiers.
var identifyingTags = map[string]struct{}{
	"Artist":             {},
	"Author":             {},
	"Copyright":          {},
	"XPAuthor":           {},
	"XPComment":          {},
	"OwnerName":          {},
	"SerialNumber":       {},
	"CameraSerialNumber": {},
	"BodySerialNumber":   {},
	"ImageUniqueID":      {},
	"UserComment":        {},
}

// Scan extracts EXIF metadata from encoded image bytes. Images without
// EXIF segments produce an empty Audit and no error.
func Scan(imageData []byte) (*Audit, error) {
	audit := &Audit{}

	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil || rawExif == nil {
		// No EXIF segment is the common, clean case.
		return audit, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return audit, nil
	}

	for _, entry := range entries {
		audit.Tags = append(audit.Tags, Tag{
			Name:  entry.TagName,
			Value: entry.Formatted,
		})
		if _, ok := identifyingTags[entry.TagName]; ok {
			audit.Identifying = append(audit.Identifying, entry.TagName)
		}
	}

	return audit, nil
}
