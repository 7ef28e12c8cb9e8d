package fetch

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeArchivePath is returned for archive members that would land outside the target directory.
var ErrUnsafeArchivePath = errors.New("archive member escapes destination")

// ExtractMatching unpacks the members of the zip archive whose name contains
// substr into destDir, keeping their relative paths. It returns the paths of
// the extracted files.
func ExtractMatching(archive, destDir, substr string) ([]string, error) {
	reader, err := zip.OpenReader(archive)
	if errors.Is(err, zip.ErrInsecurePath) {
		reader.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnsafeArchivePath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination: %w", err)
	}

	extracted := []string{}
	for _, member := range reader.File {
		if member.FileInfo().IsDir() || !strings.Contains(member.Name, substr) {
			continue
		}

		target := filepath.Join(root, filepath.FromSlash(member.Name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return extracted, fmt.Errorf("%w: %s", ErrUnsafeArchivePath, member.Name)
		}

		if err = extractFile(member, target); err != nil {
			return extracted, err
		}
		extracted = append(extracted, target)
	}

	return extracted, nil
}

func extractFile(member *zip.File, target string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer src.Close()

	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", member.Name, err)
	}

	if _, err = writeAtomic(target, io.LimitReader(src, int64(member.UncompressedSize64))); err != nil {
		return err
	}

	return nil
}
