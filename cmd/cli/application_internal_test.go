package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/stati/internal/progress"
	"github.com/temirov/stati/internal/utils"
)

const (
	testConfigurationFileNameConstant  = "config.yaml"
	testPlanFileNameConstant           = "plan.yaml"
	testConfigurationContentConstant   = "common:\n  log_level: debug\nprogress:\n  width: 90\n  default_close_method: clear\n"
	testInvalidLogLevelContentConstant = "common:\n  log_level: chatty\n"
	testPlanContentConstant            = "jobs:\n  - name: compile\n    steps: 2\n    delay: 1ms\n  - name: fetch\n    kind: bytes\n    steps: 1\n    chunk_size: 1000\n    delay: 1ms\n    thread_safe: true\n"
	testRefreshEnvironmentConstant     = "STATI_PROGRESS_REFRESH_INTERVAL"
	testSubtestNameTemplateConstant    = "%d_%s"
)

func newTestApplication(t *testing.T, logSink *bytes.Buffer) *Application {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	application := NewApplication()
	application.loggerFactory = utils.NewLoggerFactoryWithSink(logSink)
	return application
}

func writeTestFile(t *testing.T, name string, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o600))
	return filePath
}

func TestInitializeConfigurationLayers(t *testing.T) {
	testCases := []struct {
		name                string
		configurationFile   string
		environment         map[string]string
		flags               map[string]string
		expectedLogLevel    string
		expectedCloseMethod progress.CloseMethod
		expectedRefresh     time.Duration
		expectedWidth       int
		expectedNoColor     bool
	}{
		{
			name:                "embedded_defaults",
			expectedLogLevel:    string(utils.LogLevelInfo),
			expectedCloseMethod: progress.CloseMethodLeaveBehind,
			expectedRefresh:     progress.DefaultRefreshInterval,
		},
		{
			name:                "configuration_file",
			configurationFile:   testConfigurationContentConstant,
			expectedLogLevel:    string(utils.LogLevelDebug),
			expectedCloseMethod: progress.CloseMethodClear,
			expectedRefresh:     progress.DefaultRefreshInterval,
			expectedWidth:       90,
		},
		{
			name:                "environment_overrides",
			environment:         map[string]string{testRefreshEnvironmentConstant: "250ms"},
			expectedLogLevel:    string(utils.LogLevelInfo),
			expectedCloseMethod: progress.CloseMethodLeaveBehind,
			expectedRefresh:     250 * time.Millisecond,
		},
		{
			name:              "flags_override_file",
			configurationFile: testConfigurationContentConstant,
			flags: map[string]string{
				logLevelFlagNameConstant:    "WARN",
				closeMethodFlagNameConstant: "leave-behind",
				refreshFlagNameConstant:     "10ms",
				noColorFlagNameConstant:     "true",
				widthFlagNameConstant:       "70",
			},
			expectedLogLevel:    string(utils.LogLevelWarn),
			expectedCloseMethod: progress.CloseMethodLeaveBehind,
			expectedRefresh:     10 * time.Millisecond,
			expectedWidth:       70,
			expectedNoColor:     true,
		},
		{
			name:                "default_close_method_flag",
			flags:               map[string]string{closeMethodFlagNameConstant: "default"},
			expectedLogLevel:    string(utils.LogLevelInfo),
			expectedCloseMethod: progress.CloseMethodLeaveBehind,
			expectedRefresh:     progress.DefaultRefreshInterval,
		},
	}

	for testCaseIndex, testCase := range testCases {
		t.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(t *testing.T) {
			for environmentName, environmentValue := range testCase.environment {
				t.Setenv(environmentName, environmentValue)
			}

			logSink := &bytes.Buffer{}
			application := newTestApplication(t, logSink)
			rootCommand := application.rootCommand

			if len(testCase.configurationFile) > 0 {
				configurationPath := writeTestFile(t, testConfigurationFileNameConstant, testCase.configurationFile)
				require.NoError(t, rootCommand.PersistentFlags().Set(configFileFlagNameConstant, configurationPath))
			}
			for flagName, flagValue := range testCase.flags {
				require.NoError(t, rootCommand.PersistentFlags().Set(flagName, flagValue))
			}

			require.NoError(t, application.initializeConfiguration(rootCommand))

			progressConfiguration := application.progressConfiguration()
			require.Equal(t, testCase.expectedLogLevel, application.configuration.Common.LogLevel)
			require.Equal(t, testCase.expectedCloseMethod, progressConfiguration.DefaultCloseMethod)
			require.Equal(t, testCase.expectedRefresh, progressConfiguration.RefreshInterval)
			require.Equal(t, testCase.expectedWidth, progressConfiguration.Width)
			require.Equal(t, testCase.expectedNoColor, progressConfiguration.NoColor)
			require.Equal(t, progress.DefaultLockTimeout, progressConfiguration.LockTimeout)
			if testCase.expectedLogLevel == string(utils.LogLevelWarn) {
				require.NotContains(t, logSink.String(), configurationInitializedMessageConstant)
			} else {
				require.Contains(t, logSink.String(), configurationInitializedMessageConstant)
			}
		})
	}
}

func TestInitializeConfigurationRejectsUnknownLogLevel(t *testing.T) {
	application := newTestApplication(t, &bytes.Buffer{})
	configurationPath := writeTestFile(t, testConfigurationFileNameConstant, testInvalidLogLevelContentConstant)
	require.NoError(t, application.rootCommand.PersistentFlags().Set(configFileFlagNameConstant, configurationPath))

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.Error(t, initializationError)
	require.Contains(t, initializationError.Error(), "unsupported log level")
}

func TestChoiceFlagsRejectUnknownValues(t *testing.T) {
	application := newTestApplication(t, &bytes.Buffer{})
	persistentFlags := application.rootCommand.PersistentFlags()

	require.Error(t, persistentFlags.Set(closeMethodFlagNameConstant, "vanish"))
	require.Error(t, persistentFlags.Set(logFormatFlagNameConstant, "xml"))
	require.Error(t, persistentFlags.Set(logLevelFlagNameConstant, "trace"))
}

func TestApplicationRunsPlanCommand(t *testing.T) {
	logSink := &bytes.Buffer{}
	application := newTestApplication(t, logSink)
	planPath := writeTestFile(t, testPlanFileNameConstant, testPlanContentConstant)

	output := &bytes.Buffer{}
	application.rootCommand.SetOut(output)
	application.rootCommand.SetArgs([]string{"run", planPath, "--width", "120", "--refresh", "1ms", "--no-color"})

	require.NoError(t, application.Execute())

	rendered := output.String()
	require.Contains(t, rendered, "compile")
	require.Contains(t, rendered, " 100%")
	require.Contains(t, rendered, "1.0 kB / 1.0 kB")
	require.Contains(t, rendered, "✓ Completed compile (bar)")
	require.Contains(t, rendered, "✓ Completed fetch (bytes)")
	require.NotContains(t, rendered, "\x1b[32m")
	require.Contains(t, logSink.String(), configurationInitializedMessageConstant)
}

func TestApplicationRejectsMissingPlan(t *testing.T) {
	application := newTestApplication(t, &bytes.Buffer{})
	application.rootCommand.SetOut(&bytes.Buffer{})
	application.rootCommand.SetArgs([]string{"run", filepath.Join(t.TempDir(), testPlanFileNameConstant)})

	require.Error(t, application.Execute())
}

func TestApplicationRegistersCommands(t *testing.T) {
	application := newTestApplication(t, &bytes.Buffer{})

	registeredNames := make([]string, 0, len(application.rootCommand.Commands()))
	for _, subcommand := range application.rootCommand.Commands() {
		registeredNames = append(registeredNames, subcommand.Name())
	}
	require.Subset(t, registeredNames, []string{"demo", "run", "copy"})
}

func TestEmbeddedDefaultConfigurationIsCopied(t *testing.T) {
	firstCopy, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(t, configurationTypeConstant, configurationType)
	require.NotEmpty(t, firstCopy)

	firstCopy[0] = '#'
	secondCopy, _ := EmbeddedDefaultConfiguration()
	require.NotEqual(t, firstCopy[0], secondCopy[0])
}

func TestConfigurationSearchPathsFollowXDG(t *testing.T) {
	configurationHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configurationHome)

	searchPaths := configurationSearchPaths()
	require.Equal(t, []string{defaultConfigurationSearchPathConstant, filepath.Join(configurationHome, userConfigurationDirectoryNameConstant)}, searchPaths)
}

func TestApplicationReadsUserConfigurationDirectory(t *testing.T) {
	configurationHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configurationHome)
	t.Setenv("HOME", t.TempDir())

	userDirectory := filepath.Join(configurationHome, userConfigurationDirectoryNameConstant)
	require.NoError(t, os.MkdirAll(userDirectory, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(userDirectory, testConfigurationFileNameConstant), []byte(testConfigurationContentConstant), 0o600))

	application := NewApplication()
	application.loggerFactory = utils.NewLoggerFactoryWithSink(&bytes.Buffer{})
	require.NoError(t, application.initializeConfiguration(application.rootCommand))
	require.Equal(t, 90, application.progressConfiguration().Width)
	require.Equal(t, filepath.Join(userDirectory, testConfigurationFileNameConstant), application.configurationMetadata.ConfigFileUsed)
}
