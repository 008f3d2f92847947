package model

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format is the processing path selected for a source file.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatDOCX        Format = "docx"
	FormatImage       Format = "image"
	FormatUnsupported Format = "unsupported"
)

// extFormats maps lowercased file extensions to their processing path.
var extFormats = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".jpg":  FormatImage,
	".jpeg": FormatImage,
	".png":  FormatImage,
	".tiff": FormatImage,
	".bmp":  FormatImage,
}

// FormatForExt returns the Format for a file extension. Matching is
// case-insensitive and tolerates a missing leading dot.
func FormatForExt(ext string) Format {
	ext = NormalizeExt(ext)
	if f, ok := extFormats[ext]; ok {
		return f
	}
	return FormatUnsupported
}

// NormalizeExt lowercases ext and ensures a leading dot. Empty stays empty.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// SupportedExtensions returns every accepted extension in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extFormats))
	for ext := range extFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// SourceFile is an uploaded document waiting to be processed. It is never
// mutated after construction.
type SourceFile struct {
	// Path is where the bytes live on disk.
	Path string
	// Name is the filename declared by the caller. For uploads it is the
	// original client filename, which may differ from Path's base name.
	Name string
	// Ext is the lowercased extension of Name, including the dot.
	Ext string
}

// NewSourceFile builds a SourceFile whose declared name is the base of path.
func NewSourceFile(path string) SourceFile {
	return NewNamedSourceFile(path, filepath.Base(path))
}

// NewNamedSourceFile builds a SourceFile stored at path but declared as name.
func NewNamedSourceFile(path, name string) SourceFile {
	return SourceFile{
		Path: path,
		Name: name,
		Ext:  NormalizeExt(filepath.Ext(name)),
	}
}

// Format returns the processing path for the file's declared extension.
func (s SourceFile) Format() Format {
	return FormatForExt(s.Ext)
}
