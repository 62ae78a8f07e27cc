package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// TargetFile is the optional YAML file that overrides the built-in defaults.
type TargetFile struct {
	URL        string            `yaml:"url"`
	Segments   int               `yaml:"segments"`
	ProjectDir string            `yaml:"project_dir"`
	UserAgent  string            `yaml:"user_agent"`
	Headers    map[string]string `yaml:"headers"`
	Retries    int               `yaml:"retries"`
	Strict     bool              `yaml:"strict"`
}

func ReadTargetFile(filePath string) (*TargetFile, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	var tf TargetFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %v", err)
	}
	if tf.Segments < 0 {
		return nil, fmt.Errorf("segments must be at least 1, got %d", tf.Segments)
	}
	log.Debug().Str("file", filePath).Str("url", tf.URL).Int("segments", tf.Segments).Msg("Target file loaded")
	return &tf, nil
}

// ResolveTarget applies positional args over the target file over defaults.
// args[0] is the source URL and args[1] the segment count; both optional.
func ResolveTarget(args []string, tf *TargetFile) (Target, error) {
	target := Target{URL: DefaultSourceURL, Segments: DefaultSegments}
	if tf != nil {
		if tf.URL != "" {
			target.URL = tf.URL
		}
		if tf.Segments > 0 {
			target.Segments = tf.Segments
		}
	}
	if len(args) >= 1 && args[0] != "" {
		target.URL = args[0]
	}
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return Target{}, fmt.Errorf("invalid segment count %q: %v", args[1], err)
		}
		target.Segments = n
	}
	if target.Segments < 1 {
		return Target{}, fmt.Errorf("segment count must be at least 1, got %d", target.Segments)
	}
	if _, err := DetermineSourceType(target.URL); err != nil {
		return Target{}, err
	}
	return target, nil
}
