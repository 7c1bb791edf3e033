package mediafile

import (
	"sync"

	"github.com/je4/mediakit/v2/pkg/codec"
	"github.com/je4/mediakit/v2/pkg/config"
	"github.com/je4/mediakit/v2/pkg/fetch"
	"github.com/je4/mediakit/v2/pkg/filesystem"
)

var (
	fetcherMu      sync.Mutex
	defaultFetcher *fetch.Fetcher
)

// Fetcher returns the http fetcher used by FromURL.
func Fetcher() *fetch.Fetcher {
	fetcherMu.Lock()
	defer fetcherMu.Unlock()
	if defaultFetcher == nil {
		defaultFetcher = fetch.NewFetcher(0, 32, 0)
	}
	return defaultFetcher
}

// SetFetcher replaces the fetcher used by FromURL.
func SetFetcher(f *fetch.Fetcher) {
	fetcherMu.Lock()
	defer fetcherMu.Unlock()
	defaultFetcher = f
}

// Configure wires the whole library from a loaded config: codec
// registry, http fetcher and remote filesystem backends. Call once at
// startup; everything works with probing defaults without it.
func Configure(cfg config.Config) error {
	codec.Setup(codec.Options{
		FFMpeg:     cfg.FFMpeg,
		FFProbe:    cfg.FFProbe,
		TempFolder: cfg.TempFolder,
	})

	SetFetcher(fetch.NewFetcher(cfg.Fetch.Timeout.Duration, cfg.Fetch.CacheSize, cfg.Fetch.CacheTTL.Duration))

	resolver := filesystem.DefaultResolver()
	for i, s3cfg := range cfg.S3 {
		s3fs, err := filesystem.NewS3Fs(s3cfg.Name, s3cfg.Endpoint, s3cfg.AccessKeyId, s3cfg.SecretAccessKey, s3cfg.UseSSL)
		if err != nil {
			return err
		}
		if i == 0 {
			resolver.Register("s3", s3fs)
		}
		if s3cfg.Name != "" {
			resolver.Register(s3cfg.Name, s3fs)
		}
	}
	if cfg.Sftp.Address != "" {
		sftpfs, err := filesystem.NewSftpFs(cfg.Sftp.Address, cfg.Sftp.User, cfg.Sftp.PrivateKey)
		if err != nil {
			return err
		}
		resolver.Register("sftp", sftpfs)
	}
	return nil
}
