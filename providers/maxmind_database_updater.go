package providers

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"github.com/oschwald/maxminddb-golang"
	"github.com/spf13/afero"
)

// ErrNoDatabaseInArchive is returned if downloaded archive has no
// .mmdb file.
var ErrNoDatabaseInArchive = errors.New("archive has no database file")

// MaxmindDatabaseUpdater periodically downloads a fresh database for
// MaxmindDatabase. An update URL has to point to gzipped database or to
// tar.gz archive with a database inside.
//
// A new database is written next to the old one and renamed over it.
// Lookups switch to the new database right after that.
type MaxmindDatabaseUpdater struct {
	database    *MaxmindDatabase
	httpClient  geolib.HTTPClient
	url         string
	updateEvery time.Duration
}

func (m *MaxmindDatabaseUpdater) Name() string {
	return m.database.Name()
}

func (m *MaxmindDatabaseUpdater) UpdateEvery() time.Duration {
	return m.updateEvery
}

func (m *MaxmindDatabaseUpdater) Update(ctx context.Context) error {
	content, err := m.download(ctx)
	if err != nil {
		return fmt.Errorf("cannot download a database: %w", err)
	}

	reader, err := maxminddb.FromBytes(content)
	if err != nil {
		if content, err = extractMaxmindDatabase(content); err != nil {
			return fmt.Errorf("cannot extract a database: %w", err)
		}

		if reader, err = maxminddb.FromBytes(content); err != nil {
			return fmt.Errorf("downloaded database is broken: %w", err)
		}
	}

	if err := m.store(content); err != nil {
		return fmt.Errorf("cannot store a database: %w", err)
	}

	m.database.setReader(reader)

	return nil
}

func (m *MaxmindDatabaseUpdater) download(ctx context.Context) ([]byte, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot send a request: %w", err)
	}

	defer func() {
		io.Copy(io.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	gzipReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot create a gzip reader: %w", err)
	}

	defer gzipReader.Close()

	content, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, fmt.Errorf("cannot read gzipped content: %w", err)
	}

	return content, nil
}

func (m *MaxmindDatabaseUpdater) store(content []byte) error {
	fs := m.database.fs
	dir := filepath.Dir(m.database.path)

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create a directory: %w", err)
	}

	tmpFile, err := afero.TempFile(fs, dir, filepath.Base(m.database.path)+".*")
	if err != nil {
		return fmt.Errorf("cannot create a temporary file: %w", err)
	}

	defer fs.Remove(tmpFile.Name()) // nolint: errcheck

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()

		return fmt.Errorf("cannot write a temporary file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("cannot close a temporary file: %w", err)
	}

	if err := fs.Rename(tmpFile.Name(), m.database.path); err != nil {
		return fmt.Errorf("cannot move a database into its place: %w", err)
	}

	return nil
}

func extractMaxmindDatabase(content []byte) ([]byte, error) {
	tarReader := tar.NewReader(bytes.NewReader(content))

	for {
		header, err := tarReader.Next()

		switch {
		case err == io.EOF:
			return nil, ErrNoDatabaseInArchive
		case err != nil:
			return nil, fmt.Errorf("cannot extract a header: %w", err)
		case header.Linkname != "", header.FileInfo().IsDir():
			continue
		case strings.ToUpper(filepath.Ext(header.Name)) == ".MMDB":
			return io.ReadAll(tarReader)
		}
	}
}

// NewMaxmindDatabaseUpdater creates an updater which fetches url every
// updateEvery and replaces a database of given backend.
func NewMaxmindDatabaseUpdater(database *MaxmindDatabase,
	httpClient geolib.HTTPClient,
	url string,
	updateEvery time.Duration) *MaxmindDatabaseUpdater {
	return &MaxmindDatabaseUpdater{
		database:    database,
		httpClient:  httpClient,
		url:         url,
		updateEvery: updateEvery,
	}
}
