package tracking

import (
	"fmt"
	"io"
	"log/slog"
)

func sprintf(format string, args ...any) string { return fmt.Sprintf(format, args...) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
