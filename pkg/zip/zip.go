// Package zip builds in-memory archives of generated video artifacts for
// bundle downloads.
package zip

import (
	"archive/zip"
	"bytes"
	"time"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs the assets into one zip archive. Assets with an empty
// filename or that collide with an earlier name are skipped rather than
// producing a corrupt archive.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	now := time.Now()
	seen := make(map[string]struct{}, len(assets))

	for _, asset := range assets {
		if asset.Filename == "" {
			continue
		}
		if _, dup := seen[asset.Filename]; dup {
			continue
		}
		seen[asset.Filename] = struct{}{}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     asset.Filename,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	if err := zw.Close(); err != nil {
		return nil
	}
	return buf.Bytes()
}
