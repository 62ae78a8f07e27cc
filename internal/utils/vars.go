package utils

import (
	"errors"
	"time"
)

const DefaultSourceURL = "https://www.gaisler.com/anonftp/rcc/rcc-1.3/1.3.1/sparc-rtems-5-gcc-10.2.0-1.3.1-linux.txz"
const DefaultSegments = 8
const DefaultChunkSize = 1024 * 1024 // 1MiB read chunk per segment
const DefaultReportInterval = time.Second
const ToolUserAgent = "rccget/1.0"

const RCCDirName = "rcc"
const TempDirName = "temp"

var (
	ErrSizeUnavailable      = errors.New("remote did not report a usable size")
	ErrSegmentFailed        = errors.New("segment transfer failed")
	ErrRangeNotHonored      = errors.New("server did not honor the range request")
	ErrReassemblyIncomplete = errors.New("segment file missing during reassembly")
	ErrExtraction           = errors.New("archive extraction failed")
	ErrUnsupportedScheme    = errors.New("unsupported source scheme")
)

// Local-only User-Agent list
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"curl/7.88.1",
	"Wget/1.21.4",
}
