//go:build !nogpu

package gazeview

import (
	"log/slog"

	"github.com/gogpu/gazeview/display"
)

func propagateLogger(l *slog.Logger) { display.SetLogger(l) }
