package metadata

import (
	"fmt"
	"os"
	"sync"

	"github.com/barasher/go-exiftool"
	"github.com/sirupsen/logrus"
)

// ExifTool is an Inspector backed by a long-running exiftool process. Results
// are cached per path, size and modification time.
type ExifTool struct {
	et     *exiftool.Exiftool
	mu     sync.Mutex
	cache  *sync.Map
	logger *logrus.Logger
}

// NewExifTool starts exiftool. It fails when exiftool is not installed.
func NewExifTool(logger *logrus.Logger) (*ExifTool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifTool{
		et:     et,
		cache:  &sync.Map{},
		logger: logger,
	}, nil
}

// Inspect implements Inspector.
func (e *ExifTool) Inspect(path string) (*Info, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	key := e.getCacheKey(path, fileInfo)
	if cached, ok := e.cache.Load(key); ok {
		info := cached.(Info)
		return &info, nil
	}

	e.mu.Lock()
	results := e.et.ExtractMetadata(path)
	e.mu.Unlock()

	if len(results) == 0 {
		return nil, fmt.Errorf("exiftool returned no metadata for %s", path)
	}
	if results[0].Err != nil {
		return nil, fmt.Errorf("read metadata of %s: %w", path, results[0].Err)
	}

	info := FromFields(path, results[0].Fields)
	e.cache.Store(key, *info)
	e.logger.WithFields(logrus.Fields{
		"file":  path,
		"pages": info.PageCount,
	}).Debug("Extracted PDF metadata")
	return info, nil
}

// Close stops the exiftool process.
func (e *ExifTool) Close() error {
	return e.et.Close()
}

// getCacheKey returns a cache key for the given file path and file info.
func (e *ExifTool) getCacheKey(path string, fileInfo os.FileInfo) string {
	return fmt.Sprintf("%s:%d:%d", path, fileInfo.Size(), fileInfo.ModTime().UnixNano())
}
