package explorer

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadConfig when the file leaves fields empty.
const (
	DefaultAddr             = ":8080"
	DefaultDatabasePath     = "stargaze.db"
	DefaultFeedStart        = "1995-06-16"
	DefaultMaxBackwardSteps = 365
)

type Config struct {
	API struct {
		Key     string `yaml:"key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Feed struct {
		StartDate        string `yaml:"start_date"`
		MaxBackwardSteps int    `yaml:"max_backward_steps"`
	} `yaml:"feed"`
}

func LoadConfig(filename string) (*Config, error) {
	var ret Config
	f, err := os.Open(filename)
	defer f.Close()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(data, &ret)
	if err != nil {
		return nil, err
	}
	if ret.API.Key == "" {
		return nil, fmt.Errorf("api.key is required (get one at https://api.nasa.gov)")
	}
	if ret.Server.Addr == "" {
		ret.Server.Addr = DefaultAddr
	}
	if ret.Storage.Path == "" {
		ret.Storage.Path = DefaultDatabasePath
	}
	if ret.Feed.StartDate == "" {
		ret.Feed.StartDate = DefaultFeedStart
	}
	if _, err := time.Parse("2006-01-02", ret.Feed.StartDate); err != nil {
		return nil, fmt.Errorf("feed.start_date is not a valid YYYY-MM-DD date: %w", err)
	}
	if ret.Feed.MaxBackwardSteps == 0 {
		ret.Feed.MaxBackwardSteps = DefaultMaxBackwardSteps
	}
	if ret.Feed.MaxBackwardSteps < 0 {
		return nil, fmt.Errorf("feed.max_backward_steps must be positive")
	}
	return &ret, nil
}
