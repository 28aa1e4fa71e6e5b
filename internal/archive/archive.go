// Package archive packs a save directory into a gzip-compressed tar stream
// and unpacks it again for export and import.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extraction limits guarding against decompression bombs.
const (
	maxEntries   = 500000
	maxTotalSize = 64 << 30
)

// ErrUnsafePath is returned when an archive entry or symlink would land outside
// the destination directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Pack writes every entry under srcDir to w as a tar.gz stream. Entry names
// are relative to srcDir and use forward slashes.
func Pack(srcDir string, w io.Writer) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}

		var link string
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			if link, err = os.Readlink(p); err != nil {
				return fmt.Errorf("read symlink %s: %w", rel, err)
			}
		case info.IsDir(), info.Mode().IsRegular():
		default:
			return nil
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("create tar header for %s: %w", rel, err)
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}
		// owner names are meaningless on another machine
		header.Uname, header.Gname = "", ""

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write tar header for %s: %w", rel, err)
		}

		if info.Mode().IsRegular() {
			f, err := os.Open(p)
			if err != nil {
				return fmt.Errorf("open %s: %w", rel, err)
			}
			_, copyErr := io.Copy(tw, f)
			f.Close()
			if copyErr != nil {
				return fmt.Errorf("copy %s: %w", rel, copyErr)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("packing %s: %w", srcDir, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalizing gzip: %w", err)
	}
	return nil
}

// Unpack extracts a stream written by Pack into destDir, which is created if
// needed. Entries with absolute names, ".." components, paths through a
// symlink, or symlinks resolving outside destDir are rejected with
// ErrUnsafePath. All writes go through an os.Root, so nothing lands outside
// destDir even if a check is missed. Unsupported entry types are skipped.
func Unpack(r io.Reader, destDir string) error {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gr.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer root.Close()

	// symlinks created so far, by slash-separated name
	links := make(map[string]bool)

	tr := tar.NewReader(gr)
	var entries int
	var total int64
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		entries++
		if entries > maxEntries {
			return fmt.Errorf("archive contains too many entries (limit: %d)", maxEntries)
		}

		name := path.Clean(strings.TrimSuffix(header.Name, "/"))
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, header.Name)
		}
		if throughLink(name, links) {
			return fmt.Errorf("%w: %s passes through a symlink", ErrUnsafePath, header.Name)
		}
		target := filepath.FromSlash(name)
		perm := fs.FileMode(header.Mode) & fs.ModePerm

		switch header.Typeflag {
		case tar.TypeDir:
			if err := root.MkdirAll(target, perm|0700); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := mkdirParent(root, target); err != nil {
				return fmt.Errorf("create parent of %s: %w", name, err)
			}
			if links[name] {
				if err := root.Remove(target); err != nil {
					return fmt.Errorf("replace %s: %w", name, err)
				}
				delete(links, name)
			}
			f, err := root.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0600)
			if err != nil {
				return fmt.Errorf("create file %s: %w", name, err)
			}
			written, copyErr := io.Copy(f, io.LimitReader(tr, maxTotalSize-total+1))
			total += written
			closeErr := f.Close()
			if copyErr != nil {
				return fmt.Errorf("write file %s: %w", name, copyErr)
			}
			if closeErr != nil {
				return fmt.Errorf("close file %s: %w", name, closeErr)
			}
			if total > maxTotalSize {
				return fmt.Errorf("archive exceeds maximum extracted size (limit: %d bytes)", int64(maxTotalSize))
			}
		case tar.TypeSymlink:
			if !linkStaysInside(name, header.Linkname, links) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, name, header.Linkname)
			}
			if err := mkdirParent(root, target); err != nil {
				return fmt.Errorf("create parent of %s: %w", name, err)
			}
			if err := root.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("replace %s: %w", name, err)
			}
			if err := root.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", name, err)
			}
			links[name] = true
		default:
			continue
		}
	}
	return nil
}

func mkdirParent(root *os.Root, target string) error {
	dir := filepath.Dir(target)
	if dir == "." {
		return nil
	}
	return root.MkdirAll(dir, 0755)
}

// throughLink reports whether any parent of name is a symlink in links.
func throughLink(name string, links map[string]bool) bool {
	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		if links[dir] {
			return true
		}
	}
	return false
}

// linkStaysInside walks linkname from the directory holding name and reports
// whether it stays inside the destination without crossing an earlier link.
// A link may point at another link, but not traverse one.
func linkStaysInside(name, linkname string, links map[string]bool) bool {
	if linkname == "" || path.IsAbs(linkname) || filepath.IsAbs(linkname) {
		return false
	}

	var cur []string
	if dir := path.Dir(name); dir != "." {
		cur = strings.Split(dir, "/")
	}
	parts := strings.Split(filepath.ToSlash(linkname), "/")
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(cur) == 0 {
				return false
			}
			cur = cur[:len(cur)-1]
		default:
			cur = append(cur, part)
		}
		if i < len(parts)-1 && links[strings.Join(cur, "/")] {
			return false
		}
	}
	return true
}
