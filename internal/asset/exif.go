package asset

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// imageInfoTags are the EXIF tags copied into AssetRef.ImageInfo.
var imageInfoTags = map[string]bool{
	"Make":             true,
	"Model":            true,
	"Software":         true,
	"DateTime":         true,
	"DateTimeOriginal": true,
	"Orientation":      true,
	"PixelXDimension":  true,
	"PixelYDimension":  true,
}

// ImageInfo extracts a small EXIF summary from image bytes. It returns
// nil for images without EXIF data or with data that does not parse.
// GPS coordinates are not copied; their presence is recorded as
// "HasGPS" so datasets can be filtered for location-bearing photos.
func ImageInfo(data []byte) map[string]string {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil || raw == nil {
		return nil
	}
	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return nil
	}

	info := make(map[string]string)
	for _, entry := range entries {
		switch {
		case imageInfoTags[entry.TagName]:
			if _, seen := info[entry.TagName]; !seen {
				info[entry.TagName] = strings.TrimSpace(entry.Formatted)
			}
		case strings.HasPrefix(entry.TagName, "GPS"):
			info["HasGPS"] = "true"
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}
