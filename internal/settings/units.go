package settings

import (
	"fmt"
	"math"
	"strings"
)

// SizeUnit is the display unit of a target size.
type SizeUnit string

const (
	UnitKB SizeUnit = "KB"
	UnitMB SizeUnit = "MB"
)

const (
	kb = 1024
	mb = 1024 * 1024
)

// ParseSizeUnit accepts KB or MB in any case.
func ParseSizeUnit(s string) (SizeUnit, error) {
	switch SizeUnit(strings.ToUpper(strings.TrimSpace(s))) {
	case UnitKB:
		return UnitKB, nil
	case UnitMB:
		return UnitMB, nil
	default:
		return "", fmt.Errorf("invalid size unit %q (valid: KB, MB)", s)
	}
}

// SizeUnitFor picks KB below one megabyte and MB otherwise.
func SizeUnitFor(bytes int64) SizeUnit {
	if bytes < mb {
		return UnitKB
	}
	return UnitMB
}

// BytesToUnit converts bytes to the unit. KB values are whole numbers, MB
// values keep two decimals.
func BytesToUnit(bytes int64, unit SizeUnit) float64 {
	if unit == UnitKB {
		return math.Round(float64(bytes) / kb)
	}
	return math.Round(float64(bytes)/mb*100) / 100
}

// UnitToBytes converts a value in the unit back to bytes.
func UnitToBytes(value float64, unit SizeUnit) int64 {
	if unit == UnitKB {
		return int64(math.Round(value * kb))
	}
	return int64(math.Round(value * mb))
}
