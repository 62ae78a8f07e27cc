// Package testutils provides range-serving HTTP servers and archive
// fixtures shared by package tests.
package testutils

import (
	"archive/tar"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ulikunitz/xz"
)

// ServerOptions changes how the range server misbehaves.
type ServerOptions struct {
	// NoHead answers HEAD with 405 so callers must fall back to a ranged GET.
	NoHead bool

	// NoLength omits the size from HEAD and answers ranged GETs with an
	// unknown total ("bytes a-b/*").
	NoLength bool

	// IgnoreRange answers ranged GETs with 200 and the whole body.
	IgnoreRange bool

	// FailStart maps a range start offset to the status returned for it.
	FailStart map[int64]int

	// FailTimes limits FailStart to the first N requests per offset; 0 means always.
	FailTimes int

	// Truncate makes ranged responses send this many bytes fewer than asked.
	Truncate int64

	// Delay is applied before answering a range starting at the given offset.
	Delay func(start int64) time.Duration
}

// RangeServer serves one in-memory file with HTTP range support.
type RangeServer struct {
	*httptest.Server
	data []byte
	opts ServerOptions

	mu       sync.Mutex
	attempts map[int64]int
	ranges   []string
}

// GenerateTestData returns size bytes of a deterministic pattern.
func GenerateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func NewRangeServer(t *testing.T, data []byte, opts ServerOptions) *RangeServer {
	t.Helper()
	rs := &RangeServer{data: data, opts: opts, attempts: make(map[int64]int)}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.handle))
	t.Cleanup(rs.Close)
	return rs
}

// Ranges returns the Range headers received so far, sorted.
func (rs *RangeServer) Ranges() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := append([]string(nil), rs.ranges...)
	sort.Strings(out)
	return out
}

func (rs *RangeServer) handle(w http.ResponseWriter, r *http.Request) {
	size := int64(len(rs.data))
	if r.Method == http.MethodHead {
		if rs.opts.NoHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !rs.opts.NoLength {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}
		w.Header().Set("Accept-Ranges", "bytes")
		return
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" || rs.opts.IgnoreRange {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.Write(rs.data)
		return
	}

	bounds := strings.TrimPrefix(rangeHeader, "bytes=")
	parts := strings.Split(bounds, "-")
	start, _ := strconv.ParseInt(parts[0], 10, 64)
	end, _ := strconv.ParseInt(parts[1], 10, 64)

	rs.mu.Lock()
	rs.ranges = append(rs.ranges, rangeHeader)
	rs.attempts[start]++
	attempt := rs.attempts[start]
	rs.mu.Unlock()

	if rs.opts.Delay != nil {
		time.Sleep(rs.opts.Delay(start))
	}
	if status, ok := rs.opts.FailStart[start]; ok && (rs.opts.FailTimes == 0 || attempt <= rs.opts.FailTimes) {
		w.WriteHeader(status)
		return
	}
	if start >= size || start > end {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= size {
		end = size - 1
	}
	body := rs.data[start : end+1]
	if rs.opts.Truncate > 0 && int64(len(body)) > rs.opts.Truncate {
		body = body[:int64(len(body))-rs.opts.Truncate]
	}
	total := strconv.FormatInt(size, 10)
	if rs.opts.NoLength {
		total = "*"
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%s", start, end, total))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusPartialContent)
	w.Write(body)
}

// TarEntry describes one member of a generated archive. An empty Body with
// a trailing slash in Name produces a directory.
type TarEntry struct {
	Name     string
	Body     string
	Linkname string
	Mode     int64
}

// BuildTarXZ packs entries into an xz-compressed tar stream.
func BuildTarXZ(t *testing.T, entries []TarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	xzWriter, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	tarWriter := tar.NewWriter(xzWriter)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode, ModTime: time.Unix(1700000000, 0)}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
		}
		switch {
		case e.Linkname != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Linkname
		case strings.HasSuffix(e.Name, "/"):
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if err := tarWriter.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tarWriter.Write([]byte(e.Body)); err != nil {
				t.Fatalf("tar body %s: %v", e.Name, err)
			}
		}
	}
	if err := tarWriter.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := xzWriter.Close(); err != nil {
		t.Fatalf("xz close: %v", err)
	}
	return buf.Bytes()
}
