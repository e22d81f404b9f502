package settings

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrUnknownQuality is returned when a quality tier has no engine profile.
var ErrUnknownQuality = errors.New("unknown quality tier")

// Quality is a compression preset. Tiers are ordered from smallest output
// (screen) to highest fidelity (prepress).
type Quality string

const (
	QualityScreen   Quality = "screen"
	QualityEbook    Quality = "ebook"
	QualityPrinter  Quality = "printer"
	QualityPrepress Quality = "prepress"
)

// QualityOption describes a tier for display purposes.
type QualityOption struct {
	Label       string
	Value       Quality
	Description string
}

var profiles = map[Quality]string{
	QualityScreen:   "/screen",
	QualityEbook:    "/ebook",
	QualityPrinter:  "/printer",
	QualityPrepress: "/prepress",
}

// Typical output/input ratios observed for each tier.
var estimateRatios = map[Quality]float64{
	QualityScreen:   0.30,
	QualityEbook:    0.50,
	QualityPrinter:  0.70,
	QualityPrepress: 0.85,
}

// Qualities returns every tier, smallest output first.
func Qualities() []Quality {
	return []Quality{QualityScreen, QualityEbook, QualityPrinter, QualityPrepress}
}

// QualityOptions returns the labelled tiers shown by the CLI.
func QualityOptions() []QualityOption {
	return []QualityOption{
		{Label: "Screen", Value: QualityScreen, Description: "Lowest quality, smallest file size (72dpi)"},
		{Label: "eBook", Value: QualityEbook, Description: "Medium quality, good for digital reading (150dpi)"},
		{Label: "Printer", Value: QualityPrinter, Description: "High quality, suitable for printing (300dpi)"},
		{Label: "Prepress", Value: QualityPrepress, Description: "Highest quality, professional printing (300dpi+)"},
	}
}

// ParseQuality converts user input into a Quality.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[q]; !ok {
		return "", fmt.Errorf("%w: %q (valid: screen, ebook, printer, prepress)", ErrUnknownQuality, s)
	}
	return q, nil
}

// Profile returns the engine PDFSETTINGS token for the tier.
func (q Quality) Profile() (string, error) {
	p, ok := profiles[q]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuality, string(q))
	}
	return p, nil
}

// String implements fmt.Stringer.
func (q Quality) String() string {
	return string(q)
}

// AdvancedSettings holds optional overrides. A zero value means "use defaults".
type AdvancedSettings struct {
	// OutputFolder overrides the output directory; empty means the input's directory.
	OutputFolder string
	// TargetSize is the desired output size in bytes; 0 means no target.
	TargetSize int64
	// TargetSizeUnit is the unit the target was entered in, for display.
	TargetSizeUnit SizeUnit
}

// CompressionSettings is the user intent applied to every job of a batch.
// It is passed by value and never mutated during execution.
type CompressionSettings struct {
	Quality         Quality
	RemoveInputFile bool
	Advanced        *AdvancedSettings
}

// Validate checks that the settings can be turned into an engine invocation.
func (s CompressionSettings) Validate() error {
	if _, err := s.Quality.Profile(); err != nil {
		return err
	}
	if s.Advanced != nil && s.Advanced.TargetSize < 0 {
		return fmt.Errorf("target size must not be negative: %d", s.Advanced.TargetSize)
	}
	return nil
}

// OutputFolder returns the explicit output folder, or "" when none is set.
func (s CompressionSettings) OutputFolder() string {
	if s.Advanced == nil {
		return ""
	}
	return s.Advanced.OutputFolder
}

// TargetSize returns the target output size in bytes, or 0 when none is set.
func (s CompressionSettings) TargetSize() int64 {
	if s.Advanced == nil {
		return 0
	}
	return s.Advanced.TargetSize
}

// ResolveOutputDir returns the explicit output folder when it names an existing
// directory on fs, otherwise the directory containing inputPath.
func ResolveOutputDir(fs afero.Fs, outputFolder, inputPath string) string {
	if outputFolder != "" {
		if ok, err := afero.DirExists(fs, outputFolder); err == nil && ok {
			return outputFolder
		}
	}
	return filepath.Dir(inputPath)
}

// EstimateCompressedSize predicts the output size for a tier.
func EstimateCompressedSize(originalSize int64, q Quality) int64 {
	ratio, ok := estimateRatios[q]
	if !ok {
		ratio = estimateRatios[QualityEbook]
	}
	return int64(math.Round(float64(originalSize) * ratio))
}

// SuggestQuality returns the highest-fidelity tier whose estimated output fits
// within target. Screen is returned when no tier is expected to fit.
func SuggestQuality(originalSize, target int64) Quality {
	tiers := Qualities()
	for i := len(tiers) - 1; i >= 0; i-- {
		if EstimateCompressedSize(originalSize, tiers[i]) <= target {
			return tiers[i]
		}
	}
	return QualityScreen
}
