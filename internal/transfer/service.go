package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/progress"
)

const (
	managerNotConfiguredMessageConstant = "progress manager not configured"
	sourceIsDirectoryMessageConstant    = "source is a directory"
	samePathMessageConstant             = "source and destination are the same file"
	openSourceErrorTemplateConstant     = "unable to open source %q: %w"
	inspectSourceErrorTemplateConstant  = "unable to inspect source %q: %w"
	createTargetErrorTemplateConstant   = "unable to create destination %q: %w"
	copyErrorTemplateConstant           = "copy to %q interrupted: %w"
	closeTargetErrorTemplateConstant    = "unable to close destination %q: %w"
	copySummaryTemplateConstant         = "Copied %s to %s in %s\n"
	copyCompletedMessageConstant        = "file copied"
	logFieldSourceConstant              = "source"
	logFieldDestinationConstant         = "destination"
	logFieldBytesConstant               = "bytes"
	destinationPermissionsConstant      = 0o644
	elapsedRoundingConstant             = time.Millisecond
)

var (
	// ErrManagerNotConfigured indicates NewService received no manager.
	ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)
	// ErrSourceIsDirectory indicates a copy request for a directory.
	ErrSourceIsDirectory = errors.New(sourceIsDirectoryMessageConstant)
	// ErrSamePath indicates a copy onto the source itself.
	ErrSamePath = errors.New(samePathMessageConstant)
)

// Settings configures a Service.
type Settings struct {
	Layout          bars.Layout
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// CopyResult summarizes a finished copy.
type CopyResult struct {
	BytesCopied int64
	Elapsed     time.Duration
}

// Service copies files on a worker goroutine while the calling goroutine redraws.
type Service struct {
	manager         *progress.Manager
	layout          bars.Layout
	refreshInterval time.Duration
	logger          *zap.Logger
}

// NewService constructs a copy service drawing through manager.
func NewService(manager *progress.Manager, settings Settings) (*Service, error) {
	if manager == nil {
		return nil, ErrManagerNotConfigured
	}
	service := &Service{
		manager:         manager,
		layout:          settings.Layout,
		refreshInterval: settings.RefreshInterval,
		logger:          settings.Logger,
	}
	if service.refreshInterval <= 0 {
		service.refreshInterval = progress.DefaultRefreshInterval
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	return service, nil
}

// Copy copies sourcePath to destinationPath, replacing an existing file.
// The bar is left behind with the bytes transferred, including after a failure.
func (service *Service) Copy(executionContext context.Context, sourcePath string, destinationPath string) (CopyResult, error) {
	startedAt := time.Now()

	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return CopyResult{}, fmt.Errorf(openSourceErrorTemplateConstant, sourcePath, openError)
	}
	defer sourceFile.Close()

	sourceInfo, statError := sourceFile.Stat()
	if statError != nil {
		return CopyResult{}, fmt.Errorf(inspectSourceErrorTemplateConstant, sourcePath, statError)
	}
	if sourceInfo.IsDir() {
		return CopyResult{}, ErrSourceIsDirectory
	}
	if destinationInfo, destinationStatError := os.Stat(destinationPath); destinationStatError == nil && os.SameFile(sourceInfo, destinationInfo) {
		return CopyResult{}, ErrSamePath
	}

	destinationFile, createError := os.OpenFile(destinationPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, destinationPermissionsConstant)
	if createError != nil {
		return CopyResult{}, fmt.Errorf(createTargetErrorTemplateConstant, destinationPath, createError)
	}

	byteBar := bars.NewByteBar(filepath.Base(sourcePath), int(sourceInfo.Size()), service.layout)
	byteBar.SetCloseMethod(progress.CloseMethodLeaveBehind)
	handle := progress.RegisterThreadSafe(service.manager, byteBar)
	countingWriter := bars.NewCountingWriter(destinationFile, handle)

	copyContext, cancelCopy := context.WithCancel(executionContext)
	defer cancelCopy()

	var copyGroup errgroup.Group
	copyFinished := make(chan struct{})
	copyGroup.Go(func() error {
		defer close(copyFinished)
		defer handle.Release()
		_, copyError := io.Copy(countingWriter, contextReader{executionContext: copyContext, reader: sourceFile})
		return copyError
	})

	redrawError := service.redrawUntil(copyFinished)
	if redrawError != nil {
		cancelCopy()
	}
	copyError := copyGroup.Wait()
	closeError := destinationFile.Close()
	finalRedrawError := service.manager.TryPrint()

	switch {
	case redrawError != nil:
		return CopyResult{BytesCopied: countingWriter.Written()}, redrawError
	case copyError != nil:
		return CopyResult{BytesCopied: countingWriter.Written()}, fmt.Errorf(copyErrorTemplateConstant, destinationPath, copyError)
	case closeError != nil:
		return CopyResult{BytesCopied: countingWriter.Written()}, fmt.Errorf(closeTargetErrorTemplateConstant, destinationPath, closeError)
	case finalRedrawError != nil:
		return CopyResult{BytesCopied: countingWriter.Written()}, finalRedrawError
	}

	result := CopyResult{BytesCopied: countingWriter.Written(), Elapsed: time.Since(startedAt)}
	service.logger.Info(
		copyCompletedMessageConstant,
		zap.String(logFieldSourceConstant, sourcePath),
		zap.String(logFieldDestinationConstant, destinationPath),
		zap.Int64(logFieldBytesConstant, result.BytesCopied),
	)
	service.manager.Printf(copySummaryTemplateConstant, humanize.Bytes(uint64(result.BytesCopied)), destinationPath, result.Elapsed.Round(elapsedRoundingConstant))
	return result, service.manager.TryPrint()
}

// redrawUntil redraws on every refresh tick until finished is closed.
func (service *Service) redrawUntil(finished <-chan struct{}) error {
	ticker := time.NewTicker(service.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-finished:
			return nil
		case <-ticker.C:
			if printError := service.manager.TryPrint(); printError != nil {
				return printError
			}
		}
	}
}

// contextReader stops a copy once its context ends.
type contextReader struct {
	executionContext context.Context
	reader           io.Reader
}

func (reader contextReader) Read(buffer []byte) (int, error) {
	if contextError := reader.executionContext.Err(); contextError != nil {
		return 0, contextError
	}
	return reader.reader.Read(buffer)
}
