package rcchttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rccget/internal/utils"
)

// Source serves byte ranges of a single HTTP(S) resource.
type Source struct {
	url    string
	client *utils.RCCHTTPClient
}

func NewSource(link string, cfg utils.HTTPClientConfig) (*Source, error) {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", utils.ErrUnsupportedScheme, parsedURL.Scheme)
	}
	return &Source{
		url:    link,
		client: utils.NewRCCHTTPClient(cfg),
	}, nil
}

func (s *Source) Location() string {
	return s.url
}

// Size asks for the total length with a HEAD request and falls back to a
// one-byte ranged GET when HEAD is refused or carries no length.
func (s *Source) Size(ctx context.Context) (int64, error) {
	size, err := s.headSize(ctx)
	if err == nil {
		return size, nil
	}
	log.Debug().Str("op", "http/size").Err(err).Msg("HEAD gave no size, trying ranged GET")
	size, rangeErr := s.rangeProbeSize(ctx)
	if rangeErr == nil {
		return size, nil
	}
	log.Debug().Str("op", "http/size").Err(rangeErr).Msg("Ranged GET gave no size")
	return -1, fmt.Errorf("%w: %v", utils.ErrSizeUnavailable, rangeErr)
}

func (s *Source) headSize(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return -1, fmt.Errorf("error creating request: %v", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return -1, fmt.Errorf("error checking URL: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return -1, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if resp.ContentLength < 0 {
		return -1, fmt.Errorf("server didn't provide Content-Length header")
	}
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		log.Debug().Str("op", "http/size").Str("url", s.url).Msg("Server does not advertise byte ranges")
	}
	return resp.ContentLength, nil
}

func (s *Source) rangeProbeSize(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return -1, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := s.client.Do(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusPartialContent:
		_, _, total, err := ParseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			return -1, err
		}
		if total < 0 {
			return -1, fmt.Errorf("server reported unknown total length")
		}
		return total, nil
	case http.StatusOK:
		if resp.ContentLength < 0 {
			return -1, fmt.Errorf("server didn't provide Content-Length header")
		}
		return resp.ContentLength, nil
	}
	return -1, fmt.Errorf("server returned status %d", resp.StatusCode)
}

// OpenRange requests the inclusive range [start, end]. The caller closes
// the returned body.
func (s *Source) OpenRange(ctx context.Context, start, end int64) (io.ReadCloser, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-%d", start, end)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", rangeHeader)
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("op", "http/range").Str("range", rangeHeader).Msg("Sending range request")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusPartialContent:
		return resp.Body, nil
	case resp.StatusCode == http.StatusOK && resp.Header.Get("Content-Range") != "":
		return resp.Body, nil
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d for %s", utils.ErrRangeNotHonored, resp.StatusCode, rangeHeader)
	}
	resp.Body.Close()
	return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}
