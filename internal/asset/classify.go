package asset

import (
	"net/url"
	"path"
	"strings"
)

// Storage categories. Each one is a directory under <root>/<domain>/.
const (
	CategoryImages    = "images"
	CategoryDocuments = "documents"
	CategoryAudio     = "audio"
	CategoryVideos    = "videos"
	CategoryArchives  = "archives"
	CategoryOther     = "other"
)

// Categories lists every category in display order.
func Categories() []string {
	return []string{
		CategoryImages, CategoryDocuments, CategoryAudio,
		CategoryVideos, CategoryArchives, CategoryOther,
	}
}

// extensionCategory maps lower-cased extensions (with the leading dot) to
// their storage category. Every key is downloadable. Markup extensions
// (.html, .htm, .php, .asp ...) are absent so pages are never treated as
// assets.
var extensionCategory = map[string]string{
	// images
	".jpg": CategoryImages, ".jpeg": CategoryImages, ".png": CategoryImages,
	".gif": CategoryImages, ".bmp": CategoryImages, ".webp": CategoryImages,
	".svg": CategoryImages, ".ico": CategoryImages, ".tif": CategoryImages,
	".tiff": CategoryImages, ".avif": CategoryImages,

	// documents
	".pdf": CategoryDocuments, ".doc": CategoryDocuments, ".docx": CategoryDocuments,
	".xls": CategoryDocuments, ".xlsx": CategoryDocuments, ".ppt": CategoryDocuments,
	".pptx": CategoryDocuments, ".odt": CategoryDocuments, ".ods": CategoryDocuments,
	".odp": CategoryDocuments, ".txt": CategoryDocuments, ".rtf": CategoryDocuments,
	".csv": CategoryDocuments, ".epub": CategoryDocuments, ".md": CategoryDocuments,

	// audio
	".mp3": CategoryAudio, ".wav": CategoryAudio, ".ogg": CategoryAudio,
	".flac": CategoryAudio, ".aac": CategoryAudio, ".m4a": CategoryAudio,
	".wma": CategoryAudio, ".opus": CategoryAudio,

	// videos
	".mp4": CategoryVideos, ".webm": CategoryVideos, ".avi": CategoryVideos,
	".mov": CategoryVideos, ".mkv": CategoryVideos, ".wmv": CategoryVideos,
	".flv": CategoryVideos, ".m4v": CategoryVideos, ".mpeg": CategoryVideos,
	".mpg": CategoryVideos,

	// archives
	".zip": CategoryArchives, ".rar": CategoryArchives, ".7z": CategoryArchives,
	".tar": CategoryArchives, ".gz": CategoryArchives, ".bz2": CategoryArchives,
	".xz": CategoryArchives, ".tgz": CategoryArchives,

	// other downloadable files
	".json": CategoryOther, ".xml": CategoryOther, ".exe": CategoryOther,
	".dmg": CategoryOther, ".apk": CategoryOther, ".iso": CategoryOther,
	".deb": CategoryOther, ".rpm": CategoryOther, ".msi": CategoryOther,
}

// Extension returns the lower-cased extension of the last path segment of
// raw, including the dot, or "" when there is none. Query strings and
// fragments are ignored.
func Extension(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}

// Category returns the storage category of raw. URLs whose extension is
// unknown, or that have none, are "other".
func Category(raw string) string {
	if c, ok := extensionCategory[Extension(raw)]; ok {
		return c
	}
	return CategoryOther
}

// IsImage reports whether raw has an image extension.
func IsImage(raw string) bool {
	return extensionCategory[Extension(raw)] == CategoryImages
}

// IsDownloadable reports whether raw has any known asset extension.
// Every image is downloadable.
func IsDownloadable(raw string) bool {
	_, ok := extensionCategory[Extension(raw)]
	return ok
}
