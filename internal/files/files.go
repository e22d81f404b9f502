// Package files resolves user-supplied paths into immutable descriptors of
// the documents a batch will compress.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Kind is the document type of an input file.
type Kind string

const (
	KindPDF     Kind = "PDF"
	KindUnknown Kind = "UNKNOWN"
)

var supportedExtensions = map[string]Kind{
	".pdf": KindPDF,
}

// FileInfo describes an input file. It is read-only once resolved.
type FileInfo struct {
	Path      string // absolute, cleaned path
	Name      string // base name for display
	Size      int64
	Kind      Kind
	Extension string // lowercase, without the leading dot
}

// InvalidInputError reports a path that cannot be used as an input.
type InvalidInputError struct {
	Path   string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Path, e.Reason)
}

// Resolver turns raw paths into FileInfo values using fs.
type Resolver struct {
	fs afero.Fs
}

// NewResolver returns a Resolver backed by fs.
func NewResolver(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs}
}

// DetectKind maps an extension (with or without dot, any case) to a Kind.
func DetectKind(ext string) Kind {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if k, ok := supportedExtensions[ext]; ok {
		return k
	}
	return KindUnknown
}

// SupportedFormats returns the accepted extensions for help text, e.g. "pdf".
func SupportedFormats() string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

// CleanPath trims whitespace, strips one pair of surrounding quotes and
// unescapes backslash-escaped spaces, as pasted or dragged in by terminals.
func CleanPath(raw string) string {
	p := strings.TrimSpace(raw)
	if len(p) >= 2 {
		first, last := p[0], p[len(p)-1]
		if (first == '"' || first == '\'') && first == last {
			p = p[1 : len(p)-1]
		}
	}
	return strings.ReplaceAll(p, `\ `, " ")
}

// Resolve stats a single file and returns its descriptor.
func (r *Resolver) Resolve(raw string) (FileInfo, error) {
	path, err := normalize(raw)
	if err != nil {
		return FileInfo{}, &InvalidInputError{Path: raw, Reason: err.Error()}
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileInfo{}, &InvalidInputError{Path: path, Reason: "file does not exist"}
		}
		return FileInfo{}, &InvalidInputError{Path: path, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return FileInfo{}, &InvalidInputError{Path: path, Reason: "not a regular file"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	kind := DetectKind(ext)
	if kind == KindUnknown {
		return FileInfo{}, &InvalidInputError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported file type %q (supported: %s)", ext, SupportedFormats()),
		}
	}

	return FileInfo{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      info.Size(),
		Kind:      kind,
		Extension: strings.TrimPrefix(ext, "."),
	}, nil
}

// IsDir reports whether raw names an existing directory.
func (r *Resolver) IsDir(raw string) bool {
	path, err := normalize(raw)
	if err != nil {
		return false
	}
	ok, err := afero.DirExists(r.fs, path)
	return err == nil && ok
}

// ListFolder returns the supported files directly inside a folder, sorted by
// name. Hidden entries and subdirectories are ignored.
func (r *Resolver) ListFolder(raw string) ([]FileInfo, error) {
	dir, err := normalize(raw)
	if err != nil {
		return nil, &InvalidInputError{Path: raw, Reason: err.Error()}
	}
	if !r.IsDir(dir) {
		return nil, &InvalidInputError{Path: dir, Reason: "not a directory"}
	}

	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, &InvalidInputError{Path: dir, Reason: err.Error()}
	}

	var out []FileInfo
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || entry.IsDir() {
			continue
		}
		fi, err := r.Resolve(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, fi)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Collect resolves every argument: folders expand to their supported files,
// anything else must be a supported file. Unusable arguments are reported
// individually and do not stop the others from resolving.
func (r *Resolver) Collect(args []string) ([]FileInfo, []error) {
	var (
		out  []FileInfo
		errs []error
		seen = make(map[string]bool)
	)
	add := func(fi FileInfo) {
		if seen[fi.Path] {
			return
		}
		seen[fi.Path] = true
		out = append(out, fi)
	}

	for _, arg := range args {
		if r.IsDir(arg) {
			listed, err := r.ListFolder(arg)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if len(listed) == 0 {
				errs = append(errs, &InvalidInputError{Path: CleanPath(arg), Reason: "folder contains no supported files"})
				continue
			}
			for _, fi := range listed {
				add(fi)
			}
			continue
		}

		fi, err := r.Resolve(arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		add(fi)
	}
	return out, errs
}

// TotalSize sums the sizes of files.
func TotalSize(files []FileInfo) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

func normalize(raw string) (string, error) {
	p := CleanPath(raw)
	if p == "" {
		return "", errors.New("empty path")
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Abs(p)
}
