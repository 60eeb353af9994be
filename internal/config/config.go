package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default CLI configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitegrab"

	// DefaultDownloadDir is the root directory that receives downloaded assets.
	// Assets are laid out as <root>/<domain>/<category>/<file>.
	DefaultDownloadDir = "downloads"

	// DefaultTimeout bounds each HTTP request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of seeds crawled concurrently.
	DefaultBatchSize = 4

	// DefaultUserAgent is sent with every request. Some sites refuse
	// requests that do not look like a desktop browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits how much of an HTML page is read (10MB).
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultListenAddress is the address used by the serve command.
	DefaultListenAddress = "127.0.0.1:8080"
)

// Config holds all configuration options for the sitegrab CLI.
// It is populated from flags and the optional site file, then passed
// down explicitly; there is no global configuration state.
type Config struct {
	// Options is the crawl option bag applied to every target.
	Options CrawlOptions

	// Targets is the list of seed URLs.
	Targets []string

	// DownloadDir is the root of the on-disk asset layout.
	DownloadDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of bytes read from an HTML page.
	MaxBodySize int64

	// ProxyAddress routes all requests through a SOCKS5 proxy in "host:port"
	// form. Empty means direct connections.
	ProxyAddress string

	// ConfigFilePath is the path to the site file. When empty, .sitegrab is
	// looked up in the current directory and then in the home directory.
	ConfigFilePath string

	// SiteConfigs holds per-domain settings loaded from the site file.
	SiteConfigs *File

	// OutputFile receives the export instead of stdout when set.
	OutputFile string

	// SaveToDB records every crawl in the history database.
	SaveToDB bool

	// DBDir is the directory that holds the history database.
	// Defaults to the XDG data directory (~/.local/share/sitegrab on Linux).
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// ListenAddress is the address the serve command binds to.
	ListenAddress string
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Options:       DefaultCrawlOptions(),
		DownloadDir:   DefaultDownloadDir,
		Timeout:       DefaultTimeout,
		BatchSize:     DefaultBatchSize,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		SaveToDB:      true,
		DBDir:         XDGDataDir(),
		ListenAddress: DefaultListenAddress,
	}
}

// XDGDataDir returns the XDG data directory for sitegrab.
// On Linux: ~/.local/share/sitegrab
// On macOS: ~/Library/Application Support/sitegrab
// On Windows: %LOCALAPPDATA%\sitegrab
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitegrab.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the CLI configuration and the embedded crawl options.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if err := c.ValidateRuntime(); err != nil {
		return err
	}
	return c.Options.Validate()
}

// ValidateRuntime checks the settings shared by every command that
// performs network requests, without requiring targets.
func (c *Config) ValidateRuntime() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.DownloadDir == "" {
		return ErrNoDownloadDir
	}
	return nil
}

// OptionsFor returns the crawl options for seedDomain with the site file
// applied on top of the CLI options. Site entries only override values
// they set explicitly.
func (c *Config) OptionsFor(seedDomain string) CrawlOptions {
	opts := c.Options
	if c.SiteConfigs == nil {
		return opts
	}
	site := c.SiteConfigs.GetSiteConfig(seedDomain)
	if site.Depth > 0 {
		opts.MaxDepth = site.Depth
	}
	if site.MaxPages > 0 {
		opts.MaxPages = site.MaxPages
	}
	return opts
}
