// Package validation checks datasets, assumptions and output settings before
// a valuation runs.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-valuation/pkg/constants"
)

// OutputFormats lists the report renderings in the order they are offered.
var OutputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
}

// ValidateOutputFormat checks that a report can be rendered in format.
// Formats are matched exactly.
func ValidateOutputFormat(format string) error {
	for _, f := range OutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("expected output format of %s, got %q",
		strings.Join(OutputFormats, ", "), format)
}
