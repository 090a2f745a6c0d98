package module

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

const bundleSuffix = ".rustforge.tar"

// libraryFileName returns the dynamic library name a bundle must
// contain for the current platform.
func libraryFileName() string {
	switch runtime.GOOS {
	case "windows":
		return "mod.dll"
	case "darwin":
		return "mod.dylib"
	default:
		return "mod.so"
	}
}

// unpackBundle extracts bundlePath (gzip or plain tar) into a fresh
// scratch directory under scratchRoot and returns the path to the
// library file it contains. The scratch directory is not removed: its
// contents must outlive the loaded image, which may mmap it for the
// process lifetime (spec §4.4).
func unpackBundle(bundlePath, scratchRoot string) (string, error) {
	scratchDir, err := os.MkdirTemp(scratchRoot, "mod-*")
	if err != nil {
		return "", fmt.Errorf("module: create scratch dir: %w", err)
	}

	f, err := os.Open(bundlePath)
	if err != nil {
		return "", fmt.Errorf("module: open bundle: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if gz, err := gzip.NewReader(f); err == nil {
		defer gz.Close()
		r = gz
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("module: rewind bundle: %w", err)
		}
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("module: read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dest := filepath.Join(scratchDir, filepath.Base(hdr.Name))
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return "", fmt.Errorf("module: create %s: %w", dest, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return "", fmt.Errorf("module: extract %s: %w", dest, err)
		}
		out.Close()
	}

	libPath := filepath.Join(scratchDir, libraryFileName())
	if _, err := os.Stat(libPath); err != nil {
		return "", fmt.Errorf("module: bundle %s does not contain %s", bundlePath, libraryFileName())
	}
	return libPath, nil
}
