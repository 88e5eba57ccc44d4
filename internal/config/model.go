package config

import (
	"errors"
	"fmt"
	"time"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Execution ExecutionConfig
	Engine    EngineConfig
	Log       LogConfig
	Import    ImportConfig
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Address      string
	SocketIOPath string
}

// StorageConfig selects the workflow store.
type StorageConfig struct {
	Driver string
	Dir    string
}

// ExecutionConfig controls how nodes are executed. An empty Endpoint means
// the built-in handlers run in-process.
type ExecutionConfig struct {
	Endpoint  string
	Timeout   time.Duration
	TaskInput string
}

// EngineConfig tunes the execution engine.
type EngineConfig struct {
	StepDelay time.Duration
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// ImportConfig names a directory of definition files kept in sync with the
// store. Empty disables the import watcher.
type ImportConfig struct {
	Dir string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Address: ":8080", SocketIOPath: "/socket.io/"},
		Storage:   StorageConfig{Driver: DriverMemory, Dir: "data/workflows"},
		Execution: ExecutionConfig{Timeout: 30 * time.Second},
		Engine:    EngineConfig{StepDelay: 500 * time.Millisecond},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: must be 'text' or 'json'", c.Log.Format)
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.Dir == "" {
			return errors.New("storage driver 'file' requires a dir")
		}
	default:
		return fmt.Errorf("invalid storage driver %q: must be 'memory' or 'file'", c.Storage.Driver)
	}
	if c.Server.Address == "" {
		return errors.New("server address must not be empty")
	}
	if c.Execution.Timeout <= 0 {
		return errors.New("execution timeout must be positive")
	}
	if c.Engine.StepDelay < 0 {
		return errors.New("engine step_delay must not be negative")
	}
	return nil
}
