package core

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	ignore "github.com/sabhiram/go-gitignore"
)

// nativesFingerprint records which archives a natives directory was extracted from
const nativesFingerprint = ".natives-fingerprint"

// NativeArchive is a jar holding shared libraries to extract
type NativeArchive struct {
	Path string
	SHA1 string
	// Exclude lists gitignore-style patterns of entries to skip, in addition to META-INF/
	Exclude []string
}

// ExtractNatives unpacks the shared libraries of every archive into dest, flattening their paths.
// A directory already extracted from the same archives is left as it is. Otherwise the archives are
// extracted into a staging directory next to dest, which replaces dest only once every archive
// has been extracted.
func ExtractNatives(archives []NativeArchive, dest string) error {
	fingerprint := nativesFingerprintOf(archives)
	if existing, err := os.ReadFile(filepath.Join(dest, nativesFingerprint)); err == nil && bytes.Equal(existing, fingerprint) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(dest), filepath.Base(dest)+".staging-")
	if err != nil {
		return fmt.Errorf("%w: failed to create staging directory: %v", ErrExtractionFailed, err)
	}
	promoted := false
	defer func() {
		if !promoted {
			_ = os.RemoveAll(staging)
		}
	}()

	for _, a := range archives {
		if err := extractArchive(a, staging); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, filepath.Base(a.Path), err)
		}
	}
	if err := os.WriteFile(filepath.Join(staging, nativesFingerprint), fingerprint, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	// Swap the directories, so dest is always either the old or the new extraction
	var old string
	if _, err := os.Stat(dest); err == nil {
		old = staging + ".old"
		if err := os.Rename(dest, old); err != nil {
			return fmt.Errorf("%w: failed to replace %s: %v", ErrExtractionFailed, dest, err)
		}
	}
	if err := os.Rename(staging, dest); err != nil {
		if old != "" {
			_ = os.Rename(old, dest)
		}
		return fmt.Errorf("%w: failed to replace %s: %v", ErrExtractionFailed, dest, err)
	}
	promoted = true
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return nil
}

func extractArchive(a NativeArchive, dir string) error {
	r, err := zip.OpenReader(a.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	excluded := ignore.CompileIgnoreLines(append([]string{"META-INF/"}, a.Exclude...)...)
	for _, f := range r.File {
		if f.FileInfo().IsDir() || excluded.MatchesPath(f.Name) {
			continue
		}
		name := path.Base(f.Name)
		if name == "." || name == "/" || name == ".." || name == nativesFingerprint {
			continue
		}
		if err := extractFile(f, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func nativesFingerprintOf(archives []NativeArchive) []byte {
	h := sha1.New()
	for _, a := range archives {
		_, _ = fmt.Fprintf(h, "%s\x00%s\x00%q\n", filepath.Base(a.Path), a.SHA1, a.Exclude)
	}
	return []byte(hex.EncodeToString(h.Sum(nil)))
}
