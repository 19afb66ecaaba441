// Package uploads stages uploaded files on disk before they are processed.
package uploads

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDir is used when no staging directory is configured.
const DefaultDir = "app/uploads"

// File describes a staged upload.
type File struct {
	// Name is the client-supplied file name.
	Name string

	// Path is where the upload was written.
	Path string

	Size int64
}

// Stager writes uploads into a single directory. Every staged file gets a
// unique name so concurrent uploads of "recording.webm" never collide.
type Stager struct {
	dir    string
	logger *zap.Logger
}

// NewStager creates the staging directory if needed.
func NewStager(dir string, logger *zap.Logger) (*Stager, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload directory %s: %w", dir, err)
	}
	return &Stager{dir: dir, logger: logger}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Save writes data under a unique name derived from name.
func (s *Stager) Save(name string, data []byte) (*File, error) {
	path := filepath.Join(s.dir, uuid.NewString()+"-"+safeName(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("could not save upload %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not stat upload %s: %w", path, err)
	}

	s.logger.Debug("file saved",
		zap.String("name", name),
		zap.String("path", path),
		zap.Int64("size", info.Size()),
	)

	return &File{Name: name, Path: path, Size: info.Size()}, nil
}

// safeName strips directories and anything outside a conservative character
// set from a client-supplied file name.
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}
