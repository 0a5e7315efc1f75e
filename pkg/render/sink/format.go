package sink

import (
	"github.com/matzehuels/kintree/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatSVG, FormatPNG, FormatJSON, FormatDOT}
}

// ValidateFormat returns an INVALID_FORMAT error when format is unsupported.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, Formats())
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/octet-stream"
	}
}
