package pathutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant                = "~"
	tildeForwardSlashPrefixConstant    = "~/"
	emptyPathMessageConstant           = "path must be provided"
	homeDirectoryErrorTemplateConstant = "unable to resolve home directory for %q: %w"
	absolutePathErrorTemplateConstant  = "unable to resolve absolute path for %q: %w"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// ErrEmptyPath indicates a blank path argument.
var ErrEmptyPath = errors.New(emptyPathMessageConstant)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// PathResolver turns command-line path arguments into cleaned absolute paths,
// expanding a leading "~" to the user's home directory.
type PathResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewPathResolver constructs a PathResolver using the operating system home lookup.
func NewPathResolver() *PathResolver {
	return NewPathResolverWithProvider(os.UserHomeDir)
}

// NewPathResolverWithProvider constructs a PathResolver with a custom home provider.
func NewPathResolverWithProvider(provider HomeDirectoryProvider) *PathResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &PathResolver{homeDirectoryProvider: provider}
}

// Resolve trims candidatePath, expands a home prefix and returns the absolute path.
// A "~" prefix that cannot be expanded is an error rather than a literal directory name.
func (resolver *PathResolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return "", ErrEmptyPath
	}

	expandedPath, expansionError := resolver.expandHome(trimmedPath)
	if expansionError != nil {
		return "", fmt.Errorf(homeDirectoryErrorTemplateConstant, trimmedPath, expansionError)
	}

	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(absolutePathErrorTemplateConstant, trimmedPath, absoluteError)
	}
	return absolutePath, nil
}

func (resolver *PathResolver) expandHome(candidatePath string) (string, error) {
	var relativePath string
	switch {
	case candidatePath == tildeSymbolConstant:
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		relativePath = strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant)
	case strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix):
		relativePath = strings.TrimPrefix(candidatePath, tildeWithPathSeparatorPrefix)
	default:
		return candidatePath, nil
	}

	homeDirectory, homeDirectoryError := resolver.resolveHomeDirectory()
	if homeDirectoryError != nil {
		return "", homeDirectoryError
	}
	return filepath.Join(homeDirectory, relativePath), nil
}

func (resolver *PathResolver) resolveHomeDirectory() (string, error) {
	if resolver == nil {
		return os.UserHomeDir()
	}
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	return resolver.homeDirectory, resolver.homeDirectoryError
}
