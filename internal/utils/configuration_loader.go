package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	configurationListSeparatorConstant              = ","
	loaderNotConfiguredMessageConstant              = "configuration loader not configured"
)

// ErrLoaderNotConfigured indicates LoadConfiguration was called on a nil loader.
var ErrLoaderNotConfigured = errors.New(loaderNotConfiguredMessageConstant)

// ConfigurationLoader layers embedded defaults, a configuration file and
// environment overrides, lowest precedence first.
type ConfigurationLoader struct {
	configurationName      string
	configurationType      string
	environmentPrefix      string
	searchPaths            []string
	environmentKeyReplacer *strings.Replacer
	embedded               embeddedConfiguration
}

type embeddedConfiguration struct {
	content []byte
	format  string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that searches searchPaths in order
// and reads environment variables named PREFIX_SECTION_KEY.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            append([]string(nil), searchPaths...),
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// SetEmbeddedConfiguration stores configuration merged beneath any file found
// on disk. An empty format means the loader's configuration type.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}

	loader.embedded = embeddedConfiguration{format: strings.TrimSpace(configurationType)}
	if len(configurationData) > 0 {
		loader.embedded.content = append([]byte(nil), configurationData...)
	}
}

// LoadConfiguration populates targetConfiguration from defaults, the embedded
// configuration, the configuration file and environment variables.
// Values decode into durations from strings such as "30ms", into slices from
// comma separated strings and into any field implementing encoding.TextUnmarshaler.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	if loader == nil {
		return LoadedConfiguration{}, ErrLoaderNotConfigured
	}

	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)

	if mergeError := loader.mergeEmbeddedConfiguration(viperInstance); mergeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}

	loader.bindEnvironment(viperInstance)
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if readError := loader.mergeConfigurationFile(viperInstance, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
	}

	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(configurationDecodeHook())); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) mergeEmbeddedConfiguration(viperInstance *viper.Viper) error {
	if len(loader.embedded.content) == 0 {
		return nil
	}

	embeddedFormat := loader.embedded.format
	if len(embeddedFormat) == 0 {
		embeddedFormat = loader.configurationType
	}

	viperInstance.SetConfigType(embeddedFormat)
	return viperInstance.MergeConfig(bytes.NewReader(loader.embedded.content))
}

func (loader *ConfigurationLoader) bindEnvironment(viperInstance *viper.Viper) {
	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	if loader.environmentKeyReplacer != nil {
		viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	}
	viperInstance.AutomaticEnv()
}

// mergeConfigurationFile merges the explicit file, or the first file found on
// the search paths. A missing searched file is not an error.
func (loader *ConfigurationLoader) mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) error {
	viperInstance.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	if trimmedPath := strings.TrimSpace(configurationFilePath); len(trimmedPath) > 0 {
		viperInstance.SetConfigFile(trimmedPath)
	}

	readError := viperInstance.MergeInConfig()
	var notFoundError viper.ConfigFileNotFoundError
	if readError == nil || errors.As(readError, &notFoundError) {
		return nil
	}
	return readError
}

// configurationDecodeHook extends the Viper defaults with text unmarshalers so
// enumerations such as close methods decode from their names.
func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(configurationListSeparatorConstant),
	)
}
