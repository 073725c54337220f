package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// LinkFile stores the last announced link as a flat text file.
type LinkFile struct {
	path string
	mu   sync.Mutex
}

func NewLinkFile(path string) *LinkFile {
	return &LinkFile{path: path}
}

func (f *LinkFile) LastLink(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last link file: %w", err)
	}

	return strings.TrimSpace(string(raw)), nil
}

func (f *LinkFile) SetLastLink(_ context.Context, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.WriteFile(f.path, []byte(strings.TrimSpace(link)+"\n"), filePerm); err != nil {
		return fmt.Errorf("write last link file: %w", err)
	}

	return nil
}
