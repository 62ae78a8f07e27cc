package utils

import (
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

type HTTPClientConfig struct {
	Timeout        time.Duration
	KATimeout      time.Duration
	ProxyURL       string
	ProxyUsername  string
	ProxyPassword  string
	UserAgent      string
	Headers        map[string]string
	HighThreadMode bool // larger socket buffers for many parallel segments
}

// RCCHTTPClient issues the size probes and ranged GETs for one source. Every
// segment shares it, so the idle pool is sized for one host.
type RCCHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewRCCHTTPClient(cfg HTTPClientConfig) *RCCHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = ToolUserAgent
	}
	return &RCCHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newRangeTransport(cfg),
		},
		config: cfg,
	}
}

func newRangeTransport(cfg HTTPClientConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if cfg.HighThreadMode {
		dialer.Control = func(network, address string, c syscall.RawConn) error {
			return c.Control(setSocketOptions)
		}
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		IdleConnTimeout:       cfg.KATimeout,
		MaxIdleConnsPerHost:   DefaultSegments * 4,
		ResponseHeaderTimeout: cfg.Timeout,
		// a gzip-decoded body no longer matches the requested byte range
		DisableCompression: true,
	}
	if proxyURL := proxyWithCredentials(cfg); proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
		log.Debug().Str("proxy", proxyURL.Redacted()).Msg("Using proxy for connections")
	}
	return transport
}

func proxyWithCredentials(cfg HTTPClientConfig) *url.URL {
	if cfg.ProxyURL == "" {
		return nil
	}
	proxyURL, err := url.Parse(cfg.ProxyURL)
	if err != nil {
		log.Error().Err(err).Str("proxy", cfg.ProxyURL).Msg("Invalid proxy URL, proceeding without proxy")
		return nil
	}
	switch {
	case cfg.ProxyUsername != "" && cfg.ProxyPassword != "":
		proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
	case cfg.ProxyUsername != "":
		proxyURL.User = url.User(cfg.ProxyUsername)
	}
	return proxyURL
}

// Do applies the configured identity and headers. Ranged requests also ask
// for an unencoded body so the bytes received line up with the range.
func (c *RCCHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	for k, v := range c.config.Headers {
		if http.CanonicalHeaderKey(k) == "Range" {
			continue
		}
		req.Header.Set(k, v)
	}
	if req.Header.Get("Range") != "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return c.client.Do(req)
}
