package progress

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/stati/internal/terminal"
)

const (
	// DefaultRefreshInterval is the redraw cadence of the commands that drive a Manager.
	DefaultRefreshInterval = 100 * time.Millisecond

	configurationDefaultCloseMethodKeyConstant = "default_close_method"
	configurationLockTimeoutKeyConstant        = "lock_timeout"
	configurationRefreshIntervalKeyConstant    = "refresh_interval"
	configurationFallbackWidthKeyConstant      = "fallback_width"
	configurationNoColorKeyConstant            = "no_color"
	configurationWidthKeyConstant              = "width"
	configurationKeySeparatorConstant          = "."
)

// Configuration captures the progress settings loaded from configuration files and environment.
// A zero Width detects the terminal width; a positive Width fixes it.
type Configuration struct {
	DefaultCloseMethod CloseMethod   `mapstructure:"default_close_method"`
	LockTimeout        time.Duration `mapstructure:"lock_timeout"`
	RefreshInterval    time.Duration `mapstructure:"refresh_interval"`
	FallbackWidth      int           `mapstructure:"fallback_width"`
	NoColor            bool          `mapstructure:"no_color"`
	Width              int           `mapstructure:"width"`
}

// DefaultConfiguration returns the built-in progress settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		DefaultCloseMethod: CloseMethodLeaveBehind,
		LockTimeout:        DefaultLockTimeout,
		RefreshInterval:    DefaultRefreshInterval,
		FallbackWidth:      terminal.DefaultFallbackWidth,
		NoColor:            false,
		Width:              0,
	}
}

// DefaultConfigurationValues exposes the defaults as configuration keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	keyPrefix := ""
	if len(prefix) > 0 {
		keyPrefix = prefix + configurationKeySeparatorConstant
	}
	return map[string]any{
		keyPrefix + configurationDefaultCloseMethodKeyConstant: defaults.DefaultCloseMethod.String(),
		keyPrefix + configurationLockTimeoutKeyConstant:        defaults.LockTimeout.String(),
		keyPrefix + configurationRefreshIntervalKeyConstant:    defaults.RefreshInterval.String(),
		keyPrefix + configurationFallbackWidthKeyConstant:      defaults.FallbackWidth,
		keyPrefix + configurationNoColorKeyConstant:            defaults.NoColor,
		keyPrefix + configurationWidthKeyConstant:              defaults.Width,
	}
}

// Sanitize replaces unusable values with their defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.DefaultCloseMethod = configuration.DefaultCloseMethod.resolve(defaults.DefaultCloseMethod)
	if sanitized.LockTimeout <= 0 {
		sanitized.LockTimeout = defaults.LockTimeout
	}
	if sanitized.RefreshInterval <= 0 {
		sanitized.RefreshInterval = defaults.RefreshInterval
	}
	if sanitized.FallbackWidth <= 0 {
		sanitized.FallbackWidth = defaults.FallbackWidth
	}
	if sanitized.Width < 0 {
		sanitized.Width = defaults.Width
	}
	return sanitized
}

// NewManager constructs a Manager honoring the configuration. Frames written
// to output are buffered until the manager flushes them.
func (configuration Configuration) NewManager(output io.Writer, logger *zap.Logger) *Manager {
	sanitized := configuration.Sanitize()
	if output == nil {
		output = os.Stdout
	}
	return NewManager(
		WithOutput(terminal.NewStream(output)),
		WithLogger(logger),
		WithDefaultCloseMethod(sanitized.DefaultCloseMethod),
		WithLockTimeout(sanitized.LockTimeout),
	)
}
