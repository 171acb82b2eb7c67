package archive

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"bufio"          // For peeking at magic bytes
	"bytes"          // For magic comparisons
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/xi2/xz"          // For reading .xz compressed data

	"toolup/internal/logger"
	"toolup/internal/release"
)

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	bzip2Magic = []byte("BZh")
	zipMagic   = []byte("PK\x03\x04")
	ustarMagic = []byte("ustar")
)

// ustarOffset is where the "ustar" magic sits in a POSIX tar header.
const ustarOffset = 257

// Detect returns the format of a downloaded asset. The file name decides first;
// names without a known suffix are probed by content so that compressed assets
// published without an extension are still unpacked.
func Detect(path string) (release.Format, error) {
	format := release.FormatOf(path)
	if format != release.FormatRaw {
		return format, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, ustarOffset+len(ustarMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return release.FormatZip, nil
	case bytes.HasPrefix(head, gzipMagic):
		return probeCompressed(path, release.FormatTarGz, release.FormatGz)
	case bytes.HasPrefix(head, xzMagic):
		return probeCompressed(path, release.FormatTarXz, release.FormatXz)
	case bytes.HasPrefix(head, bzip2Magic):
		return release.FormatTarBz2, nil
	case isTarHeader(head):
		return release.FormatTar, nil
	}
	return release.FormatRaw, nil
}

// probeCompressed decompresses the first tar block to tell a compressed tarball
// from a single compressed file.
func probeCompressed(path string, tarFormat, singleFormat release.Format) (release.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r, err := decompressor(bufio.NewReader(f))
	if err != nil {
		return singleFormat, nil
	}
	head := make([]byte, ustarOffset+len(ustarMagic))
	n, _ := io.ReadFull(r, head)
	if isTarHeader(head[:n]) {
		return tarFormat, nil
	}
	return singleFormat, nil
}

func isTarHeader(head []byte) bool {
	return len(head) >= ustarOffset+len(ustarMagic) && bytes.Equal(head[ustarOffset:ustarOffset+len(ustarMagic)], ustarMagic)
}

// Extract unpacks archivePath into a freshly created directory under parent and
// returns that directory.
func Extract(ctx context.Context, archivePath string, format release.Format, parent string) (string, error) {
	dir, err := os.MkdirTemp(parent, "extract-")
	if err != nil {
		return "", &ExtractionError{Path: archivePath, Format: format, Err: err}
	}
	logger.Debug("[DEBUG] Extracting %s (%s) to %s\n", archivePath, format, dir)

	switch {
	case format.IsTar():
		err = extractTar(archivePath, dir)
	case format == release.FormatZip:
		err = extractZip(archivePath, dir)
	case format == release.Format7z:
		err = extract7z(archivePath, dir)
	case format == release.FormatDeb:
		err = extractDeb(ctx, archivePath, dir)
	case format == release.FormatGz || format == release.FormatXz:
		err = decompressSingle(archivePath, dir)
	default:
		err = fmt.Errorf("unsupported archive format: %s", format)
	}

	if err != nil {
		if _, ok := err.(*MissingDependencyError); ok {
			return "", err
		}
		return "", &ExtractionError{Path: archivePath, Format: format, Err: err}
	}
	return dir, nil
}

// decompressor wraps r according to its magic bytes: gzip, xz, bzip2, or none.
func decompressor(r *bufio.Reader) (io.Reader, error) {
	head, _ := r.Peek(len(xzMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		logger.Debug("[DEBUG] compression type is gzip\n")
		return gzip.NewReader(r)
	case bytes.HasPrefix(head, xzMagic):
		logger.Debug("[DEBUG] compression type is xz\n")
		return xz.NewReader(r, 0)
	case bytes.HasPrefix(head, bzip2Magic):
		logger.Debug("[DEBUG] compression type is bzip2\n")
		return bzip2.NewReader(r), nil
	default:
		logger.Debug("[DEBUG] no compression detected, reading plain tar\n")
		return r, nil
	}
}

// safeJoin joins name under root and rejects entries escaping it.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	cleanRoot := filepath.Clean(root)
	if target != cleanRoot && !strings.HasPrefix(target, cleanRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}

// safeTarget is safeJoin plus a check that no directory between root and the
// entry is a symlink created by an earlier entry. Writing through such a link
// could land outside root even though the entry name itself looks clean.
func safeTarget(root, name string) (string, error) {
	target, err := safeJoin(root, name)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Dir(target))
	if err != nil || rel == "." {
		return target, nil
	}

	current := filepath.Clean(root)
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if os.IsNotExist(err) {
			// Nothing further down can exist yet.
			return target, nil
		}
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("illegal file path in archive: %s passes through symlink %s", name, mustRel(root, current))
		}
	}
	return target, nil
}

// extractTar handles plain and compressed tarballs, probing the compression by content.
func extractTar(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := decompressor(bufio.NewReader(f))
	if err != nil {
		return err
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		// Every entry is checked against the tree extracted so far
		target, err := safeTarget(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := symlinkInside(dest, target, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			source, err := safeTarget(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("create hard link %s: %w", target, err)
			}
		default:
			logger.Debug("[DEBUG] Skipping tar entry %s (type %c)\n", hdr.Name, hdr.Typeflag)
		}
	}
	return nil
}

// symlinkInside recreates a symlink only when its target stays within root.
func symlinkInside(root, target, linkname string) error {
	resolved := linkname
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(target), linkname)
	}
	if _, err := safeJoin(root, mustRel(root, resolved)); err != nil {
		logger.Debug("[DEBUG] Skipping symlink %s -> %s escaping the archive\n", target, linkname)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// extractZip extracts a .zip archive, keeping file modes.
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		path, err := safeTarget(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeFile(path, rc, zipMode(f))
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// zipMode returns the entry permissions; archives created without Unix modes get 0644.
func zipMode(f *zip.File) os.FileMode {
	mode := f.Mode().Perm()
	if mode == 0 {
		return 0644
	}
	return mode
}

// extract7z handles .7z extraction using the sevenzip library
func extract7z(src, dest string) error {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		path, err := safeTarget(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0644
		}
		err = writeFile(path, rc, mode)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractDeb unpacks a Debian package's data archive with dpkg-deb.
func extractDeb(ctx context.Context, src, dest string) error {
	dpkg, err := exec.LookPath("dpkg-deb")
	if err != nil {
		return &MissingDependencyError{Tool: "dpkg-deb", Format: release.FormatDeb}
	}
	cmd := exec.CommandContext(ctx, dpkg, "-x", src, dest)
	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dpkg-deb failed: %v: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// decompressSingle expands a single gzip or xz compressed file into dest,
// naming it after the archive without its extension and marking it executable.
func decompressSingle(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := decompressor(bufio.NewReader(f))
	if err != nil {
		return err
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	name := filepath.Base(src)
	for _, ext := range []string{".gz", ".xz"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	return writeFile(filepath.Join(dest, name), reader, 0755)
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	// An earlier entry may have left a symlink here; replace it instead of writing through it.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile applies the umask; restore the archive's bits.
	return os.Chmod(path, mode)
}
