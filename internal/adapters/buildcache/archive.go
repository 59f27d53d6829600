package buildcache

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/ulikunitz/xz"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	metadataName = "METADATA.json"
	outputPrefix = "outputs/"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Metadata describes an entry. It is the first member of every archive.
type Metadata struct {
	Task     string              `json:"task"`
	Key      domain.CacheKey     `json:"key"`
	Created  time.Time           `json:"created"`
	Outputs  map[string][]string `json:"outputs"`
	Files    int                 `json:"files"`
	RawBytes int64               `json:"raw_bytes"`
}

// compressor wraps w with the configured compression.
func compressor(w io.Writer, compression string) (io.WriteCloser, error) {
	switch compression {
	case domain.CompressionXZ:
		return xz.NewWriter(w)
	case domain.CompressionGzip, "":
		return gzip.NewWriter(w), nil
	default:
		return nil, zerr.With(domain.ErrUnknownCompression, "compression", compression)
	}
}

// decompressor detects the compression of r by its magic bytes.
func decompressor(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(head, xzMagic):
		return xz.NewReader(br)
	case bytes.HasPrefix(head, gzipMagic):
		return gzip.NewReader(br)
	default:
		return nil, zerr.New("unknown archive compression")
	}
}

// writeArchive packs the output paths below root into w.
func writeArchive(w io.Writer, meta Metadata, root string, outputs []domain.OutputFiles) (Metadata, error) {
	meta.Outputs = make(map[string][]string, len(outputs))
	var files []string
	for _, out := range outputs {
		meta.Outputs[out.Name] = append([]string(nil), out.Paths...)
		for _, p := range out.Paths {
			collected, err := collect(root, p)
			if err != nil {
				return meta, err
			}
			files = append(files, collected...)
		}
	}

	for _, rel := range files {
		info, err := os.Lstat(filepath.Join(root, rel))
		if err == nil && info.Mode().IsRegular() {
			meta.Files++
			meta.RawBytes += info.Size()
		}
	}

	tw := tar.NewWriter(w)
	data, err := json.Marshal(meta)
	if err != nil {
		return meta, err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    metadataName,
		Mode:    int64(domain.FilePerm),
		Size:    int64(len(data)),
		ModTime: meta.Created,
	}); err != nil {
		return meta, err
	}
	if _, err := tw.Write(data); err != nil {
		return meta, err
	}

	for _, rel := range files {
		if err := addFile(tw, root, rel); err != nil {
			return meta, zerr.With(err, "path", rel)
		}
	}
	return meta, tw.Close()
}

// collect lists the slash separated relative paths below one output path.
// A missing output contributes nothing.
func collect(root, rel string) ([]string, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Lstat(abs); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var paths []string
	err := godirwalk.Walk(abs, &godirwalk.Options{
		Callback: func(p string, _ *godirwalk.Dirent) error {
			r, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(r))
			return nil
		},
		AllowNonDirectory: true,
	})
	return paths, err
}

func addFile(tw *tar.Writer, root, rel string) error {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}

	link := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(abs); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = outputPrefix + rel
	if info.IsDir() {
		hdr.Name += "/"
	}
	// Entries depend on content only.
	hdr.ModTime = time.Time{}
	hdr.AccessTime = time.Time{}
	hdr.ChangeTime = time.Time{}
	hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
	hdr.Format = tar.FormatPAX

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(abs) //nolint:gosec // Declared output of the task
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // Read-only
	_, err = io.Copy(tw, f)
	return err
}

// readMetadata reads the leading metadata member of an archive.
func readMetadata(tr *tar.Reader) (Metadata, error) {
	var meta Metadata
	hdr, err := tr.Next()
	if err != nil {
		return meta, zerr.Wrap(err, domain.ErrCacheEntryInvalid.Error())
	}
	if hdr.Name != metadataName {
		return meta, zerr.With(domain.ErrCacheEntryInvalid, "first_member", hdr.Name)
	}
	if err := json.NewDecoder(tr).Decode(&meta); err != nil {
		return meta, zerr.Wrap(err, domain.ErrCacheEntryInvalid.Error())
	}
	return meta, nil
}

// extract writes the output members of an archive below root.
func extract(tr *tar.Reader, root string) error {
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, domain.ErrCacheEntryInvalid.Error())
		}

		rel, ok := strings.CutPrefix(hdr.Name, outputPrefix)
		if !ok {
			continue
		}
		target, err := safeJoin(root, rel)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(tr, target, fs.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

func writeMember(r io.Reader, target string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm) //nolint:gosec // Guarded by safeJoin
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // Entries were written by this cache
		_ = f.Close()
		return err
	}
	return f.Close()
}

// safeJoin joins a slash separated archive path to root, rejecting paths that escape it.
func safeJoin(root, rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "\\") || path.IsAbs(rel) || clean != "/"+strings.TrimSuffix(rel, "/") {
		return "", zerr.With(domain.ErrCacheEntryInvalid, "member", rel)
	}
	return filepath.Join(root, filepath.FromSlash(clean[1:])), nil
}
