// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// Compress gzips JSON and text responses of at least minSize bytes for
// clients that accept it. Images pass through untouched.
func Compress(minSize int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}
			sw := &selectiveWriter{ResponseWriter: w, minSize: minSize}
			next.ServeHTTP(sw, r)
			sw.flush()
		})
	}
}

// selectiveWriter buffers the body and decides on compression at the end.
type selectiveWriter struct {
	http.ResponseWriter
	minSize    int
	buffer     []byte
	statusCode int
}

func (sw *selectiveWriter) WriteHeader(statusCode int) {
	if sw.statusCode == 0 {
		sw.statusCode = statusCode
	}
}

func (sw *selectiveWriter) Write(b []byte) (int, error) {
	sw.buffer = append(sw.buffer, b...)
	return len(b), nil
}

func (sw *selectiveWriter) flush() {
	compress := len(sw.buffer) >= sw.minSize && isCompressible(sw.Header().Get("Content-Type"))
	if compress {
		sw.Header().Set("Content-Encoding", "gzip")
		sw.Header().Add("Vary", "Accept-Encoding")
		sw.Header().Del("Content-Length")
	}
	if sw.statusCode != 0 {
		sw.ResponseWriter.WriteHeader(sw.statusCode)
	}
	if len(sw.buffer) == 0 {
		return
	}

	if !compress {
		_, _ = sw.ResponseWriter.Write(sw.buffer)
		return
	}
	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(sw.ResponseWriter)
	_, _ = gz.Write(sw.buffer)
	_ = gz.Close()
	gzipWriterPool.Put(gz)
}

func isCompressible(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType == "application/json" || strings.HasPrefix(mediaType, "text/")
}
