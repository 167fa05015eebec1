package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Identity resolves the stable identifier of the device the engine runs on.
type Identity interface {
	DeviceID(ctx context.Context) (string, error)
}

type Static string

func (s Static) DeviceID(context.Context) (string, error) {
	id := strings.TrimSpace(string(s))
	if id == "" {
		return "", fmt.Errorf("device id is empty")
	}
	return id, nil
}

// FileIdentity generates a UUID on first use and keeps it in a file so the
// device keeps its identity across restarts.
type FileIdentity struct {
	path string

	mu sync.Mutex
	id string
}

func NewFileIdentity(path string) *FileIdentity {
	return &FileIdentity{path: strings.TrimSpace(path)}
}

func (f *FileIdentity) DeviceID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.id != "" {
		return f.id, nil
	}
	if f.path == "" {
		return "", fmt.Errorf("device id file path is empty")
	}

	raw, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(raw)); id != "" {
			f.id = id
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read device id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return "", fmt.Errorf("create device id dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	f.id = id
	return id, nil
}
