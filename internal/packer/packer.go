// Package packer turns a staged workspace directory into a single
// compressed container file and back. Pack and unpack are treated as atomic
// black-box operations by the pipeline; callers never observe partial state.
package packer

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxEntrySize caps a single extracted file (100MB). This prevents tar bomb
// attacks that could exhaust disk or memory.
const maxEntrySize = 100 * 1024 * 1024

// TarGz packs directories into tar.gz containers.
type TarGz struct{}

// New creates a tar.gz packer.
func New() *TarGz {
	return &TarGz{}
}

// Pack writes the contents of srcDir into a tar.gz file at dstFile. Entry
// names are relative to srcDir, so the workspace tree becomes the container
// root.
func (p *TarGz) Pack(srcDir, dstFile string) error {
	if err := os.MkdirAll(filepath.Dir(dstFile), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	out, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	defer func() { _ = out.Close() }()

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if info.IsDir() {
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     0755,
				ModTime:  info.ModTime(),
			})
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		header := &tar.Header{
			Name:    name,
			Mode:    0644,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		_ = f.Close()
		return err
	})
	if err != nil {
		_ = tw.Close()
		_ = gw.Close()
		return fmt.Errorf("pack %s: %w", srcDir, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalize gzip: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close container: %w", err)
	}
	return nil
}

// Unpack extracts the container at srcFile into dstDir. Entries escaping
// the destination directory are rejected.
func (p *TarGz) Unpack(srcFile, dstDir string) error {
	f, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("open container: %w", err)
	}
	defer func() { _ = f.Close() }()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read gzip: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		target, err := safeJoin(dstDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if header.Size > maxEntrySize {
				return fmt.Errorf("entry %s exceeds size limit", header.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent of %s: %w", header.Name, err)
			}
			out, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create %s: %w", header.Name, err)
			}
			_, err = io.Copy(out, io.LimitReader(tr, maxEntrySize))
			closeErr := out.Close()
			if err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
			if closeErr != nil {
				return fmt.Errorf("close %s: %w", header.Name, closeErr)
			}
		default:
			// Links and special files never appear in containers we wrote.
			continue
		}
	}
	return nil
}

// ReadFile streams the container at srcFile until it finds the entry named
// name and returns its contents, without extracting anything to disk.
func (p *TarGz) ReadFile(srcFile, name string) ([]byte, error) {
	f, err := os.Open(srcFile)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	defer func() { _ = f.Close() }()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	defer func() { _ = gr.Close() }()

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("entry %s not found in container", name)
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg || header.Name != name {
			continue
		}
		if header.Size > maxEntrySize {
			return nil, fmt.Errorf("entry %s exceeds size limit", name)
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxEntrySize))
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		return data, nil
	}
}

// safeJoin joins an archive entry name onto dst, rejecting traversal.
func safeJoin(dst, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) || cleaned == ".." {
		return "", fmt.Errorf("entry %s escapes destination", name)
	}
	return filepath.Join(dst, cleaned), nil
}
