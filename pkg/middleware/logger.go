package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Request log formats, mirroring the classic morgan format names.
const (
	FormatCommon   = "common"
	FormatCombined = "combined"
	FormatDev      = "dev"
	FormatShort    = "short"
	FormatTiny     = "tiny"
)

// KnownFormat reports whether name is a supported log format.
func KnownFormat(name string) bool {
	switch name {
	case FormatCommon, FormatCombined, FormatDev, FormatShort, FormatTiny:
		return true
	}
	return false
}

// apacheTimeLayout is the CLF timestamp layout used by common/combined.
const apacheTimeLayout = "02/Jan/2006:15:04:05 -0700"

// RequestLogger logs one line per request through the given slog.Logger,
// formatted according to format. Unknown formats fall back to common.
func RequestLogger(logger *slog.Logger, format string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if !KnownFormat(format) {
		format = FormatCommon
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				line := formatLine(format, r, ww.Status(), ww.BytesWritten(), start, time.Since(start))
				logger.LogAttrs(r.Context(), slog.LevelInfo, line,
					slog.Int("status", normalizeStatus(ww.Status())),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// formatLine renders a single access log line.
func formatLine(format string, r *http.Request, status, bytes int, start time.Time, elapsed time.Duration) string {
	status = normalizeStatus(status)
	remote := remoteHost(r)
	ms := float64(elapsed.Microseconds()) / 1000

	switch format {
	case FormatCombined:
		return fmt.Sprintf("%s - - [%s] %q %d %s %q %q",
			remote, start.Format(apacheTimeLayout), requestLine(r), status, contentLength(bytes),
			r.Referer(), r.UserAgent())
	case FormatDev:
		return fmt.Sprintf("%s %s %d %.3f ms - %s",
			r.Method, r.RequestURI, status, ms, contentLength(bytes))
	case FormatShort:
		return fmt.Sprintf("%s - %s %s %s %d %s - %.3f ms",
			remote, r.Method, r.RequestURI, r.Proto, status, contentLength(bytes), ms)
	case FormatTiny:
		return fmt.Sprintf("%s %s %d %s - %.3f ms",
			r.Method, r.RequestURI, status, contentLength(bytes), ms)
	default: // common
		return fmt.Sprintf("%s - - [%s] %q %d %s",
			remote, start.Format(apacheTimeLayout), requestLine(r), status, contentLength(bytes))
	}
}

// requestLine renders the first line of the request for CLF formats.
func requestLine(r *http.Request) string {
	return r.Method + " " + r.RequestURI + " " + r.Proto
}

// contentLength renders the CLF byte count, "-" when nothing was written.
func contentLength(bytes int) string {
	if bytes == 0 {
		return "-"
	}
	return strconv.Itoa(bytes)
}

// normalizeStatus maps the zero value (nothing written) to the implicit 200.
func normalizeStatus(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

// remoteHost strips the port from RemoteAddr.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
