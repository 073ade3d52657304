package deb

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/roextract/debpack/internal/logger"
)

// NativeArchiver builds the archive in-process, with no external tools.
// A .deb is an ar archive holding debian-binary, a compressed control tar
// and a compressed data tar. The staging tree must already be normalized;
// the archive members reproduce its modes with root:root ownership.
type NativeArchiver struct {
	// compression is the data member compression: "gzip" or "xz".
	// The control member is always gzip, which every dpkg accepts.
	compression string
}

const (
	// debianBinaryVersion is the format version member every .deb starts with.
	debianBinaryVersion = "2.0\n"

	// controlSubdir is the control metadata directory inside the staging tree.
	controlSubdir = "DEBIAN"

	// arMemberMode is the mode recorded for every ar member.
	arMemberMode = 0o644
)

// NewNativeArchiver returns a NativeArchiver using the provided data member
// compression ("gzip" or "xz"), defaulting to gzip.
func NewNativeArchiver(compression string) *NativeArchiver {
	if compression == "" {
		compression = "gzip"
	}

	return &NativeArchiver{compression: compression}
}

// Build assembles the archive at outPath from the staging tree at root.
// An existing file at outPath is overwritten.
func (a *NativeArchiver) Build(ctx context.Context, root, outPath string) error {
	logger.InfoKV(ctx, "Building archive natively",
		"root", root, "output", outPath, "compression", a.compression)

	controlDir := filepath.Join(root, controlSubdir)

	controlMember, err := a.compressTar("gzip", controlDir, nil)
	if err != nil {
		return fmt.Errorf("build control member: %w", err)
	}

	dataMember, err := a.compressTar(a.compression, root, func(path string) bool {
		return path == controlDir || strings.HasPrefix(path, controlDir+string(filepath.Separator))
	})
	if err != nil {
		return fmt.Errorf("build data member: %w", err)
	}

	out, err := os.Create(filepath.Clean(outPath))
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		_ = out.Close()
	}()

	writer := ar.NewWriter(out)
	if err := writer.WriteGlobalHeader(); err != nil {
		return fmt.Errorf("write archive header: %w", err)
	}

	members := []struct {
		name string
		body []byte
	}{
		{"debian-binary", []byte(debianBinaryVersion)},
		{"control.tar.gz", controlMember},
		{"data.tar." + memberExtension(a.compression), dataMember},
	}

	for _, member := range members {
		if err := writeArMember(writer, member.name, member.body); err != nil {
			return fmt.Errorf("write archive member %s: %w", member.name, err)
		}
	}

	return out.Close()
}

// compressTar produces a compressed tarball of the directory, skipping paths
// matched by exclude.
func (a *NativeArchiver) compressTar(compression, dir string, exclude func(string) bool) ([]byte, error) {
	var buf bytes.Buffer

	var compressor io.WriteCloser

	switch compression {
	case "xz":
		xzWriter, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}

		compressor = xzWriter
	default:
		compressor = pgzip.NewWriter(&buf)
	}

	if err := tarDirectory(dir, exclude, compressor); err != nil {
		return nil, err
	}

	if err := compressor.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// memberExtension maps a compression name to the data member extension.
func memberExtension(compression string) string {
	if compression == "xz" {
		return "xz"
	}

	return "gz"
}

// writeArMember appends one member to the ar archive with root:root ownership.
func writeArMember(w *ar.Writer, name string, body []byte) error {
	header := &ar.Header{
		Name:    name,
		ModTime: time.Now(),
		Uid:     0,
		Gid:     0,
		Mode:    arMemberMode,
		Size:    int64(len(body)),
	}

	if err := w.WriteHeader(header); err != nil {
		return err
	}

	_, err := w.Write(body)

	return err
}

// tarDirectory writes the directory's contents into out as a tar stream with
// "./"-prefixed member names and root:root ownership, preserving the on-disk
// permission bits the normalizer has already set.
func tarDirectory(dir string, exclude func(string) bool, out io.Writer) error {
	tarWriter := tar.NewWriter(out)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if exclude != nil && exclude(path) {
			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		name := "./"
		if relative != "." {
			name += filepath.ToSlash(relative)
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		header := &tar.Header{
			Name:    name,
			Mode:    int64(info.Mode().Perm()),
			ModTime: info.ModTime(),
			Uname:   "root",
			Gname:   "root",
			Format:  tar.FormatGNU,
		}

		if entry.IsDir() {
			header.Typeflag = tar.TypeDir

			if !strings.HasSuffix(header.Name, "/") {
				header.Name += "/"
			}
		} else {
			header.Typeflag = tar.TypeReg
			header.Size = info.Size()
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return err
		}

		defer func() {
			_ = file.Close()
		}()

		_, err = io.Copy(tarWriter, file)

		return err
	})
	if err != nil {
		return err
	}

	return tarWriter.Close()
}
