package outwriter

import (
	"os"

	"github.com/flowmosaic/mosaic/internal/contract"
	"golang.org/x/term"
)

// getMaxQualifierWidth calculates the maximum width for the qualifier column in table
// output based on terminal width and the fixed report columns.
func getMaxQualifierWidth(cfg *contract.Config) int {
	termWidth := cfg.Width // absolute override from flag/env

	if termWidth == 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Query + Value + Count + Begin + End + Rolling with borders/padding
	baseWidth := 80

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}
