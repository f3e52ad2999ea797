// Package config loads runtime settings from defaults, an optional JSON
// file and environment variables, in that order.
package config

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "strconv"
    "time"

    "github.com/rs/zerolog"
)

// Duration is a time.Duration that encodes as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(time.Duration(d).String()) }

func (d *Duration) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return err
    }
    v, err := time.ParseDuration(s)
    if err != nil {
        return err
    }
    *d = Duration(v)
    return nil
}

type Model struct {
    APIKey   string   `json:"-"`
    Endpoint string   `json:"endpoint"`
    Name     string   `json:"name"`
    Timeout  Duration `json:"timeout"`
}

type Config struct {
    Addr      string `json:"addr"`
    BoardSize int    `json:"board_size"`
    Games     int    `json:"games"`
    Workers   int    `json:"workers"`
    LogLevel  string `json:"log_level"`
    Model     Model  `json:"model"`
}

var ErrInvalid = errors.New("invalid config")

// Default returns the built-in settings.
func Default() Config {
    return Config{
        Addr:      ":8080",
        BoardSize: 3,
        Games:     1,
        Workers:   4,
        LogLevel:  "info",
        Model: Model{
            Endpoint: "https://generativelanguage.googleapis.com",
            Name:     "gemini-2.0-flash",
            Timeout:  Duration(30 * time.Second),
        },
    }
}

// Load applies path (if non-empty) and the environment over the defaults.
func Load(path string) (Config, error) {
    cfg := Default()
    if path != "" {
        raw, err := os.ReadFile(path)
        if err != nil {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err := json.Unmarshal(raw, &cfg); err != nil {
            return cfg, fmt.Errorf("parse config %s: %w", path, err)
        }
    }
    if err := cfg.applyEnv(os.LookupEnv); err != nil {
        return cfg, err
    }
    return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
    str := func(key string, dst *string) {
        if v, ok := lookup(key); ok && v != "" {
            *dst = v
        }
    }
    str("TTT_ADDR", &c.Addr)
    str("TTT_LOG_LEVEL", &c.LogLevel)
    str("GEMINI_API_KEY", &c.Model.APIKey)
    str("TTT_MODEL", &c.Model.Name)
    str("TTT_MODEL_ENDPOINT", &c.Model.Endpoint)

    if v, ok := lookup("TTT_BOARD_SIZE"); ok && v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return fmt.Errorf("TTT_BOARD_SIZE: %w", err)
        }
        c.BoardSize = n
    }
    if v, ok := lookup("TTT_MODEL_TIMEOUT"); ok && v != "" {
        d, err := time.ParseDuration(v)
        if err != nil {
            return fmt.Errorf("TTT_MODEL_TIMEOUT: %w", err)
        }
        c.Model.Timeout = Duration(d)
    }
    return nil
}

// Validate checks ranges.
func (c Config) Validate() error {
    switch {
    case c.BoardSize < 1:
        return fmt.Errorf("board_size %d: %w", c.BoardSize, ErrInvalid)
    case c.Games < 1:
        return fmt.Errorf("games %d: %w", c.Games, ErrInvalid)
    case c.Workers < 1:
        return fmt.Errorf("workers %d: %w", c.Workers, ErrInvalid)
    }
    if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
        return fmt.Errorf("log_level %q: %w", c.LogLevel, ErrInvalid)
    }
    return nil
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() zerolog.Level {
    lvl, err := zerolog.ParseLevel(c.LogLevel)
    if err != nil {
        return zerolog.InfoLevel
    }
    return lvl
}
