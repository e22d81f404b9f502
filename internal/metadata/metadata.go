// Package metadata reads document properties of PDF files through exiftool.
package metadata

import (
	"fmt"
	"strconv"
)

// Info holds the PDF properties shown to the user.
type Info struct {
	Path       string
	PageCount  int
	PDFVersion string
	Title      string
	Author     string
	Creator    string
	Producer   string
	Linearized bool
	Encrypted  bool
}

// Inspector extracts Info from a file.
type Inspector interface {
	Inspect(path string) (*Info, error)
}

// FromFields builds Info from exiftool's tag map. Missing tags leave zero
// values.
func FromFields(path string, fields map[string]interface{}) *Info {
	info := &Info{
		Path:       path,
		PDFVersion: str(fields["PDFVersion"]),
		Title:      str(fields["Title"]),
		Author:     str(fields["Author"]),
		Creator:    str(fields["Creator"]),
		Producer:   str(fields["Producer"]),
		Encrypted:  str(fields["Encryption"]) != "",
	}
	info.PageCount = num(fields["PageCount"])
	switch v := fields["Linearized"].(type) {
	case bool:
		info.Linearized = v
	case string:
		info.Linearized = v == "Yes" || v == "true"
	}
	return info
}

func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func num(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}
