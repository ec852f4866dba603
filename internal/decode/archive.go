package decode

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// File is one entry of an archive.
type File struct {
	Name string
	Data []byte
}

// ArchiveError reports an archive with the wrong number of sheets.
type ArchiveError struct {
	Want int
	Got  int
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive must contain %d files, found %d", e.Want, e.Got)
}

// Archive returns the files of a zip archive in entry order. Directories,
// macOS resource forks and hidden files are ignored. Exactly want files
// must remain.
func Archive(data []byte, want int, opts Options) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var files []File
	for _, zf := range zr.File {
		if skipEntry(zf) {
			continue
		}
		if opts.MaxEntrySize > 0 && zf.UncompressedSize64 > uint64(opts.MaxEntrySize) {
			return nil, fmt.Errorf("archive entry %s: file too large", zf.Name)
		}

		body, err := readEntry(zf, opts.MaxEntrySize)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: path.Base(zf.Name), Data: body})
	}

	if len(files) != want {
		return nil, &ArchiveError{Want: want, Got: len(files)}
	}
	return files, nil
}

func skipEntry(zf *zip.File) bool {
	if zf.FileInfo().IsDir() {
		return true
	}
	if strings.HasPrefix(zf.Name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(zf.Name), ".")
}

func readEntry(zf *zip.File, limit int64) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("open archive entry %s: %w", zf.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read archive entry %s: %w", zf.Name, err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, fmt.Errorf("archive entry %s: file too large", zf.Name)
	}
	return body, nil
}
