package docs_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/stati/internal/plan"
	"github.com/temirov/stati/internal/progress"
	"github.com/temirov/stati/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	planHeaderMarkerConstant         = "# plan.yaml"
	readmeSnippetTemporaryPattern    = "readme-config-*.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageTemplate     = "README example missing marker %s"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	defaultTempDirectoryRootConstant = ""
	readmeConfigurationNameConstant  = "config"
	readmeConfigurationTypeConstant  = "yaml"
	readmeEnvironmentPrefixConstant  = "READMESTATI"
	expectedReadmePlanJobCount       = 4
)

type readmeApplicationConfiguration struct {
	Common struct {
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"common"`
	Progress progress.Configuration `mapstructure:"progress"`
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippetContent := readReadmeSnippet(testInstance, configHeaderMarkerConstant)

	tempFile, tempFileError := os.CreateTemp(defaultTempDirectoryRootConstant, readmeSnippetTemporaryPattern)
	require.NoError(testInstance, tempFileError)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Remove(tempFile.Name()))
	})

	_, writeError := tempFile.WriteString(snippetContent)
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, tempFile.Close())

	configurationLoader := utils.NewConfigurationLoader(readmeConfigurationNameConstant, readmeConfigurationTypeConstant, readmeEnvironmentPrefixConstant, nil)

	var applicationConfiguration readmeApplicationConfiguration
	_, loadError := configurationLoader.LoadConfiguration(tempFile.Name(), nil, &applicationConfiguration)
	require.NoError(testInstance, loadError)

	require.Contains(testInstance, utils.LogLevelChoices(), applicationConfiguration.Common.LogLevel)
	require.Contains(testInstance, utils.LogFormatChoices(), applicationConfiguration.Common.LogFormat)
	require.Equal(testInstance, progress.DefaultConfiguration(), applicationConfiguration.Progress)
}

func TestReadmePlanParses(testInstance *testing.T) {
	snippetContent := readReadmeSnippet(testInstance, planHeaderMarkerConstant)

	var rawPlan map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &rawPlan))

	parsedPlan, parseError := plan.ParsePlan([]byte(snippetContent))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, parsedPlan.Jobs, expectedReadmePlanJobCount)

	seenKinds := make(map[plan.JobKind]struct{}, len(parsedPlan.Jobs))
	for _, job := range parsedPlan.Jobs {
		seenKinds[job.Kind] = struct{}{}
	}
	for _, kind := range []plan.JobKind{plan.JobKindBar, plan.JobKindSpinner, plan.JobKindCustom, plan.JobKindBytes} {
		_, documented := seenKinds[kind]
		require.True(testInstance, documented, string(kind))
	}
}

func readReadmeSnippet(testInstance *testing.T, headerMarker string) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, headerMarker)
	require.NotEqual(testInstance, -1, headerIndex, fmt.Sprintf(missingHeaderMessageTemplate, headerMarker))

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}
