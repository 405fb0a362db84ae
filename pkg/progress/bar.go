package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// New renvoie une barre de progression sur stderr, ou muette si enabled == false.
func New(total int, description string, enabled bool) *progressbar.ProgressBar {
	var w io.Writer = io.Discard
	if enabled {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}
