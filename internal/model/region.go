package model

// RegionName identifies one rectangular OCR unit on a page.
type RegionName string

const (
	RegionHeader      RegionName = "header"
	RegionLeftColumn  RegionName = "left_column"
	RegionRightColumn RegionName = "right_column"
)

// Label returns the heading written above the region's text in RawText.
func (r RegionName) Label() string {
	switch r {
	case RegionHeader:
		return "Header"
	case RegionLeftColumn:
		return "Left Column"
	case RegionRightColumn:
		return "Right Column"
	default:
		return string(r)
	}
}

// RawText is the page-labeled concatenation of OCR or DOCX output.
type RawText string

// CleanedText is RawText after the normalization pass.
type CleanedText string
