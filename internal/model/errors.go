package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies pipeline failures for callers that need to react to
// them (HTTP status mapping, CLI exit messages).
type ErrorKind string

const (
	KindUnsupportedFormat   ErrorKind = "unsupported_format"
	KindServiceError        ErrorKind = "service_error"
	KindNormalizationFailed ErrorKind = "normalization_failed"
	KindRenderError         ErrorKind = "render_error"
	KindParseError          ErrorKind = "parse_error"
	KindOCRError            ErrorKind = "ocr_error"
	KindImageError          ErrorKind = "image_error"
	KindUnknown             ErrorKind = "unknown"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError classifies err under kind. op names the failing operation.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// UnsupportedFormatError reports an extension outside the accepted set.
func UnsupportedFormatError(ext string) *Error {
	return NewError(KindUnsupportedFormat, "dispatch", fmt.Errorf(
		"unsupported file type %q; supported file types: %s",
		ext, strings.Join(SupportedExtensions(), ", "),
	))
}

// ServiceError reports a text-understanding service failure.
func ServiceError(op string, err error) *Error {
	return NewError(KindServiceError, op, err)
}

// NormalizationFailed reports a failed cleanup pass.
func NormalizationFailed(err error) *Error {
	return NewError(KindNormalizationFailed, "normalize", err)
}

// RenderError reports a PDF rasterization failure.
func RenderError(err error) *Error {
	return NewError(KindRenderError, "render", err)
}

// ParseError reports a structured-document reading failure.
func ParseError(err error) *Error {
	return NewError(KindParseError, "parse", err)
}

// KindOf returns the kind of the outermost classified error in err's chain,
// or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether any classified error in err's chain has kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
