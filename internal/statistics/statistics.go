package statistics

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains all statistics for a compression run.
type Statistics struct {
	FilesFound            int64
	FilesCompressed       int64
	FilesAlreadyOptimized int64
	FilesFailed           int64
	FilesSkipped          int64
	InputsRemoved         int64
	TargetsMissed         int64

	BytesIn    int64
	BytesOut   int64
	BytesSaved int64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Errors []StatError

	mutex sync.RWMutex
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
		Errors:    make([]StatError, 0),
	}
}

// AddFilesFound increases the count of found files by n.
func (s *Statistics) AddFilesFound(n int) {
	atomic.AddInt64(&s.FilesFound, int64(n))
}

// RecordCompressed accounts for a finished job. Already optimized jobs count
// separately and contribute no savings.
func (s *Statistics) RecordCompressed(inputSize, outputSize int64, alreadyOptimized, inputRemoved, targetMissed bool) {
	if alreadyOptimized {
		atomic.AddInt64(&s.FilesAlreadyOptimized, 1)
	} else {
		atomic.AddInt64(&s.FilesCompressed, 1)
	}
	if inputRemoved {
		atomic.AddInt64(&s.InputsRemoved, 1)
	}
	if targetMissed {
		atomic.AddInt64(&s.TargetsMissed, 1)
	}
	atomic.AddInt64(&s.BytesIn, inputSize)
	atomic.AddInt64(&s.BytesOut, outputSize)
	atomic.AddInt64(&s.BytesSaved, inputSize-outputSize)
}

// IncrementFilesFailed increases the count of failed files by 1.
func (s *Statistics) IncrementFilesFailed() {
	atomic.AddInt64(&s.FilesFailed, 1)
}

// IncrementFilesSkipped increases the count of skipped files by 1.
func (s *Statistics) IncrementFilesSkipped() {
	atomic.AddInt64(&s.FilesSkipped, 1)
}

// Finalize stamps the end time and duration.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// SavedPercentage returns the share of input bytes saved across finished jobs.
func (s *Statistics) SavedPercentage() float64 {
	in := atomic.LoadInt64(&s.BytesIn)
	if in == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&s.BytesSaved)) / float64(in) * 100
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	s.mutex.RUnlock()

	return fmt.Sprintf(`Compression Summary:

Files:
		Found: %d
		Compressed: %d
		Already Optimized: %d
		Failed: %d
		Skipped: %d
		Originals Removed: %d
		Target Size Missed: %d

Size:
		Before: %s
		After: %s
		Saved: %s (%.1f%%)

Duration: %s`,
		atomic.LoadInt64(&s.FilesFound),
		atomic.LoadInt64(&s.FilesCompressed),
		atomic.LoadInt64(&s.FilesAlreadyOptimized),
		atomic.LoadInt64(&s.FilesFailed),
		atomic.LoadInt64(&s.FilesSkipped),
		atomic.LoadInt64(&s.InputsRemoved),
		atomic.LoadInt64(&s.TargetsMissed),
		FormatBytes(atomic.LoadInt64(&s.BytesIn)),
		FormatBytes(atomic.LoadInt64(&s.BytesOut)),
		FormatBytes(atomic.LoadInt64(&s.BytesSaved)),
		s.SavedPercentage(),
		FormatDuration(duration))
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// HasFailures reports whether any file failed.
func (s *Statistics) HasFailures() bool {
	return atomic.LoadInt64(&s.FilesFailed) > 0
}

// GetDuration returns the total duration of the run.
func (s *Statistics) GetDuration() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Duration
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with a 1024 base and up to two decimals,
// e.g. "1.5 MB".
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatDuration renders whole seconds as "1m 5s" or "5s".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if mins := secs / 60; mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}
