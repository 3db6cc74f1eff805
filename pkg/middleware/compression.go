package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"
	"sync"
)

var gzipWriters = sync.Pool{New: func() interface{} { return gzip.NewWriter(nil) }}

type gzipBody struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func (g gzipBody) Write(b []byte) (int, error) { return g.zw.Write(b) }

// Gzip compresses the response when the client advertises gzip support.
// Mounted on search, whose result pages are the only large bodies the API returns.
func Gzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		zw := gzipWriters.Get().(*gzip.Writer)
		zw.Reset(w)
		w.Header().Set("Content-Encoding", "gzip")

		next.ServeHTTP(gzipBody{ResponseWriter: w, zw: zw}, r)

		_ = zw.Close()
		gzipWriters.Put(zw)
	})
}
