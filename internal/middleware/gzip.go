package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

type gzipWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
	noBody      bool // 204/304: тело запрещено, gzip-поток не пишется
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if g.noBody {
		return g.ResponseWriter.Write(b)
	}
	return g.zw.Write(b)
}

func (g *gzipWriter) WriteHeader(statusCode int) {
	if g.wroteHeader {
		return
	}
	g.wroteHeader = true
	if statusCode == http.StatusNoContent || statusCode == http.StatusNotModified {
		g.noBody = true
		g.ResponseWriter.WriteHeader(statusCode)
		return
	}
	g.Header().Del("Content-Length")
	g.Header().Set("Content-Encoding", "gzip")
	g.ResponseWriter.WriteHeader(statusCode)
}

// close дописывает gzip-поток; для ответов без тела ничего не пишет.
func (g *gzipWriter) close() error {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if g.noBody {
		return nil
	}
	return g.zw.Close()
}

func (g *gzipWriter) Flush() {
	if g.noBody {
		return
	}
	_ = g.zw.Flush()
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// WithGzip сжимает ответ, если клиент принимает gzip, и распаковывает тело запроса с Content-Encoding: gzip.
// Потоковые ответы (Accept: text/event-stream) не сжимаются.
func WithGzip(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "bad gzip body", http.StatusBadRequest)
				return
			}
			defer zr.Close()
			r.Body = io.NopCloser(zr)
			r.Header.Del("Content-Encoding")
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") ||
			strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			h.ServeHTTP(w, r)
			return
		}

		gw := &gzipWriter{ResponseWriter: w, zw: gzip.NewWriter(w)}
		defer func() {
			if err := gw.close(); err != nil {
				logger.Warnw("gzip close failed", "error", err)
			}
		}()
		h.ServeHTTP(gw, r)
	})
}
