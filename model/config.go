package model

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		WebSocket struct {
			Host string `yaml:"host"`
			Port int    `yaml:"port"`
		} `yaml:"web_socket"`
		Authentication struct {
			Enable bool   `yaml:"enable"`
			Secret string `yaml:"secret"`
		} `yaml:"authentication"`
		Static struct {
			Enable bool   `yaml:"enable"`
			Dir    string `yaml:"dir"`
		} `yaml:"static"`
	} `yaml:"server"`
	Game struct {
		ElevatorCount     int           `yaml:"elevator_count"`
		ElevatorCapacity  int           `yaml:"elevator_capacity"`
		ElevatorCountdown int           `yaml:"elevator_countdown"`
		PanicSeconds      int           `yaml:"panic_seconds"`
		TickInterval      time.Duration `yaml:"tick_interval"`
		TwistedAI         bool          `yaml:"twisted_ai"`
		Map               struct {
			Width  float64 `yaml:"width"`
			Height float64 `yaml:"height"`
		} `yaml:"map"`
	} `yaml:"game"`
	JSONLogger struct {
		Enable    bool   `yaml:"enable"`
		OutputDir string `yaml:"output_dir"`
		Filename  string `yaml:"filename"`
	} `yaml:"json_logger"`
	GameLogger struct {
		Enable    bool   `yaml:"enable"`
		OutputDir string `yaml:"output_dir"`
		Filename  string `yaml:"filename"`
	} `yaml:"game_logger"`
}

func DefaultConfig() Config {
	var config Config
	config.Game.ElevatorCount = 3
	config.Game.ElevatorCapacity = 8
	config.Game.ElevatorCountdown = 20
	config.Game.PanicSeconds = 15
	config.Game.TickInterval = 100 * time.Millisecond
	config.Game.TwistedAI = true
	config.Game.Map.Width = 1600
	config.Game.Map.Height = 1000
	return config
}

func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("failed to read config file", "path", path, "error", err)
		return nil, err
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		slog.Error("failed to parse config file", "path", path, "error", err)
		return nil, err
	}
	return &config, nil
}
