package model

// AssetRef describes an asset that was written to disk.
type AssetRef struct {
	// OriginalURL is the absolute URL the asset was fetched from.
	OriginalURL string `json:"originalUrl"`

	// LocalPath is "<domain>/<category>/<filename>" relative to the
	// download root, always with forward slashes.
	LocalPath string `json:"localPath"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// Category is the storage category, e.g. "images" or "documents".
	Category string `json:"category"`

	// ImageInfo holds a few EXIF tags of downloaded images, when present.
	ImageInfo map[string]string `json:"imageInfo,omitempty"`
}

// DownloadOutcome is the result of one download attempt. Failed attempts
// keep the category so callers can still report what was skipped.
type DownloadOutcome struct {
	Success bool

	// FilePath is the local path relative to the download root, or empty.
	FilePath string

	Size     int64
	Category string

	// ImageInfo is copied to the AssetRef built from a successful outcome.
	ImageInfo map[string]string
}

// AssetRef converts a successful outcome into an AssetRef for originalURL.
func (o DownloadOutcome) AssetRef(originalURL string) AssetRef {
	return AssetRef{
		OriginalURL: originalURL,
		LocalPath:   o.FilePath,
		Size:        o.Size,
		Category:    o.Category,
		ImageInfo:   o.ImageInfo,
	}
}

// DownloadStats aggregates every asset of a crawl.
type DownloadStats struct {
	TotalImages int   `json:"totalImages"`
	TotalFiles  int   `json:"totalFiles"`
	TotalSize   int64 `json:"totalSize"`
	// FilesByCategory counts non-image assets per category.
	FilesByCategory map[string]int `json:"filesByCategory"`
}

// DownloadSummary lists the assets of a crawl with their totals.
type DownloadSummary struct {
	Images []AssetRef    `json:"images"`
	Files  []AssetRef    `json:"files"`
	Stats  DownloadStats `json:"stats"`
}

// NewDownloadSummary computes the summary of images and files.
// Both slices are kept as given; nil slices become empty ones so that
// JSON output always carries arrays.
func NewDownloadSummary(images, files []AssetRef) DownloadSummary {
	if images == nil {
		images = []AssetRef{}
	}
	if files == nil {
		files = []AssetRef{}
	}
	stats := DownloadStats{
		TotalImages:     len(images),
		TotalFiles:      len(files),
		FilesByCategory: make(map[string]int),
	}
	for _, a := range images {
		stats.TotalSize += a.Size
	}
	for _, a := range files {
		stats.TotalSize += a.Size
		stats.FilesByCategory[a.Category]++
	}
	return DownloadSummary{Images: images, Files: files, Stats: stats}
}
