package utils

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func DetermineSourceType(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %v", err)
	}
	switch parsed.Scheme {
	case "http", "https":
		return "http", nil
	case "s3":
		return "s3", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
}

// FileNameFromURL returns the last element of the URL path, which names the
// assembled file in the workspace.
func FileNameFromURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return "download"
	}
	p := parsed.Path
	if parsed.Scheme == "s3" && p == "" {
		p = parsed.Host
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return "download"
	}
	return base
}
