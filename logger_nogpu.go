//go:build nogpu

package gazeview

import "log/slog"

func propagateLogger(*slog.Logger) {}
