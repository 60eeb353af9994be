package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/sitegrab/internal/fetch"
	"github.com/nao1215/sitegrab/internal/model"
)

// maxFileNameLength keeps generated names well below common filesystem limits.
const maxFileNameLength = 200

// maxCollisionSuffix bounds the _N probing for a free file name.
const maxCollisionSuffix = 10000

// Downloader fetches assets and writes them under
// <root>/<domain>/<category>/<filename>.
type Downloader struct {
	fetcher     *fetch.Fetcher
	root        string
	maxFileSize int64
	imageInfo   bool
	now         func() time.Time
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithMaxFileSize makes downloads larger than size bytes fail.
// Zero disables the cap.
func WithMaxFileSize(size int64) DownloaderOption {
	return func(d *Downloader) {
		d.maxFileSize = size
	}
}

// WithImageInfo enables the EXIF summary for downloaded images.
func WithImageInfo(enabled bool) DownloaderOption {
	return func(d *Downloader) {
		d.imageInfo = enabled
	}
}

// WithClock replaces the clock used for generated file names.
func WithClock(now func() time.Time) DownloaderOption {
	return func(d *Downloader) {
		d.now = now
	}
}

// NewDownloader returns a Downloader writing below root.
func NewDownloader(f *fetch.Fetcher, root string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		fetcher:   f,
		root:      root,
		imageInfo: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the download root directory.
func (d *Downloader) Root() string {
	return d.root
}

// Download stores assetURL for domain.
//
// When persist is false nothing is fetched or written and the outcome only
// carries the category. Otherwise the asset is fetched and written to a
// file name that does not exist yet: an existing "a.pdf" makes the new
// file "a_1.pdf", then "a_2.pdf" and so on. Every failure yields an
// unsuccessful outcome together with an error wrapping ErrDownload; no
// file is left behind for a failed fetch.
func (d *Downloader) Download(ctx context.Context, assetURL, domain string, persist bool) (model.DownloadOutcome, error) {
	out := model.DownloadOutcome{Category: Category(assetURL)}
	if !persist {
		return out, nil
	}

	fail := func(err error) (model.DownloadOutcome, error) {
		return out, fmt.Errorf("%w: %s: %w", ErrDownload, assetURL, err)
	}

	u, err := url.Parse(assetURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fail(ErrInvalidAssetURL)
	}
	if !validDomainSegment(domain) {
		return fail(fmt.Errorf("%w: %q", ErrInvalidDomain, domain))
	}

	dir := filepath.Join(d.root, domain, out.Category)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fail(err)
	}

	resp, err := d.fetcher.FetchLimited(ctx, assetURL, d.maxFileSize)
	if err != nil {
		return fail(err)
	}

	name, err := d.writeUnique(dir, d.fileName(u, resp.ContentType), resp.Body)
	if err != nil {
		return fail(err)
	}

	out.Success = true
	out.FilePath = path.Join(domain, out.Category, name)
	out.Size = int64(len(resp.Body))
	if d.imageInfo && out.Category == CategoryImages {
		out.ImageInfo = ImageInfo(resp.Body)
	}
	return out, nil
}

// fileName derives the stored name from the URL path. Names without an
// extension are replaced by a timestamp-based one, with an extension
// taken from the Content-Type when it is known.
func (d *Downloader) fileName(u *url.URL, contentType string) string {
	base := sanitizeFileName(path.Base(u.Path))
	if base != "" && path.Ext(base) != "" && path.Ext(base) != base {
		return base
	}
	return "file_" + strconv.FormatInt(d.now().UnixMilli(), 10) + extensionForType(contentType)
}

// writeUnique creates dir/name, or the first free name_N variant, and
// writes data to it. Creation is exclusive, so concurrent downloads never
// overwrite each other.
func (d *Downloader) writeUnique(dir, name string, data []byte) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i <= maxCollisionSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = stem + "_" + strconv.Itoa(i) + ext
		}
		full := filepath.Join(dir, candidate)
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:gosec // dataset files are meant to be readable
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(full)
			return "", err
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(full)
			return "", err
		}
		return candidate, nil
	}
	return "", ErrNoFreeFileName
}

func sanitizeFileName(name string) string {
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20 || r == 0x7f:
			return -1
		case strings.ContainsRune(`\/:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, name)
	if len(name) > maxFileNameLength {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxFileNameLength-len(ext)] + ext
	}
	return strings.TrimSpace(name)
}

// extensionForType returns a file extension for a Content-Type value,
// preferring extensions that Category knows.
func extensionForType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	for _, ext := range exts {
		if _, ok := extensionCategory[ext]; ok {
			return ext
		}
	}
	return exts[0]
}

func validDomainSegment(domain string) bool {
	return domain != "" && domain != "." && domain != ".." &&
		!strings.ContainsAny(domain, `/\`)
}
