// Package bridge exposes Fetcharr to an embedding host as typed request/response operations.
//
// Every operation runs under its own timeout and returns either a value or a classified error.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fetcharr/internal/deps"
	"fetcharr/internal/domain/command"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/downloads"
	"fetcharr/internal/errclass"
	"fetcharr/internal/metadata"
	"fetcharr/internal/models"
	"fetcharr/internal/proxy"
	"fetcharr/internal/utils/logging"
)

// Service answers bridge operations.
type Service struct {
	downloads *downloads.Manager
	meta      *metadata.Fetcher
	binDir    string

	// opener launches desktop helpers. Swapped in tests.
	opener func(ctx context.Context, name string, args ...string) error
}

// New returns a Service backed by the download manager and metadata fetcher.
func New(m *downloads.Manager, meta *metadata.Fetcher, binDir string) *Service {
	return &Service{
		downloads: m,
		meta:      meta,
		binDir:    binDir,
		opener:    runOpener,
	}
}

// ReadyInfo answers Ready.
type ReadyInfo struct {
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
}

// VersionInfo answers Version.
type VersionInfo struct {
	App          string                    `json:"app"`
	Dependencies []models.DependencyStatus `json:"dependencies"`
}

// InfoRequest asks for metadata about one URL.
type InfoRequest struct {
	URL     string                 `json:"url"`
	Options models.DownloadOptions `json:"options"`
}

// PlaylistRequest asks for one page of a playlist.
type PlaylistRequest struct {
	URL     string                 `json:"url"`
	Options models.DownloadOptions `json:"options"`
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
}

// DownloadRequest queues one download.
type DownloadRequest struct {
	URL     string                 `json:"url"`
	Options models.DownloadOptions `json:"options"`
}

// DownloadReply answers Download.
type DownloadReply struct {
	ID     string                `json:"id"`
	Result models.DownloadResult `json:"result"`
}

// PathRequest names a local file or directory.
type PathRequest struct {
	Path string `json:"path"`
}

// PickedFile answers PickFile.
type PickedFile struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Ready reports that the service is up.
func (s *Service) Ready(ctx context.Context) (ReadyInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.BridgeReadyTimeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return ReadyInfo{}, errclass.Wrap(err)
	}
	return ReadyInfo{Ready: s.downloads != nil && s.meta != nil, Version: consts.ProgramVersion}, nil
}

// Version reports the program and tool versions.
func (s *Service) Version(ctx context.Context) (VersionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, consts.VersionTimeout)
	defer cancel()

	all := deps.CheckAll(ctx, s.binDir)
	tools := make([]models.DependencyStatus, 0, 2)
	for _, d := range all {
		if d.Name == command.YTDLP || d.Name == command.Lux {
			tools = append(tools, d)
		}
	}
	return VersionInfo{App: consts.ProgramVersion, Dependencies: tools}, nil
}

// VideoInfo fetches display metadata for a URL.
func (s *Service) VideoInfo(ctx context.Context, req InfoRequest) (*models.VideoInfo, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	info, err := s.meta.VideoInfo(ctx, req.URL, req.Options)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	return info, nil
}

// PlaylistInfo lists one page of a playlist.
func (s *Service) PlaylistInfo(ctx context.Context, req PlaylistRequest) (*models.PlaylistInfo, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	info, err := s.meta.PlaylistInfo(ctx, req.URL, req.Options, req.Offset, req.Limit)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	return info, nil
}

// Formats lists the streams available for a URL.
func (s *Service) Formats(ctx context.Context, req InfoRequest) (*models.VideoFormats, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	out, err := s.meta.Formats(ctx, req.URL, req.Options)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	return out, nil
}

// FileInfo inspects a direct file link without downloading it.
func (s *Service) FileInfo(ctx context.Context, req InfoRequest) (*models.FileInfo, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, consts.BridgeFileTimeout)
	defer cancel()

	info, err := downloads.CheckFileURL(ctx, req.URL, proxy.Resolve(req.Options.Proxy).URL)
	if err != nil {
		return nil, errclass.Wrap(err)
	}
	return info, nil
}

// CacheStats reports metadata cache occupancy.
func (s *Service) CacheStats() metadata.CacheStats {
	return s.meta.Stats()
}

// ClearCache empties the metadata caches.
func (s *Service) ClearCache() metadata.CacheStats {
	s.meta.Clear()
	return s.meta.Stats()
}

// Download queues req and blocks until it finishes, forwarding progress to the channel.
//
// A nil channel discards progress. When ctx ends first, a download started by this call is cancelled.
func (s *Service) Download(ctx context.Context, req DownloadRequest, progress chan<- models.ProgressEvent) (DownloadReply, error) {
	item, existing, err := s.downloads.Submit(req.URL, req.Options)
	if err != nil {
		return DownloadReply{}, errclass.Wrap(err)
	}
	reply := DownloadReply{ID: item.ID}
	if existing {
		logging.I("Joining download already in progress for %q", item.NormalizedURL)
	}

	events, unsubscribe, err := s.downloads.Watch(item.ID)
	if err != nil {
		return reply, errclass.Wrap(err)
	}
	defer unsubscribe()

Loop:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break Loop
			}
			if progress == nil {
				continue
			}
			select {
			case progress <- ev:
			default:
			}
		case <-ctx.Done():
			if !existing {
				if err := s.downloads.Cancel(item.ID); err != nil {
					logging.W("Could not cancel %s: %v", item.ID, err)
				}
			}
			return reply, errclass.Wrap(ctx.Err())
		}
	}

	res, err := s.downloads.Wait(ctx, item.ID)
	if err != nil {
		return reply, errclass.Wrap(err)
	}
	reply.Result = res
	return reply, nil
}

// OpenPath opens a file or directory with the system default application.
func (s *Service) OpenPath(ctx context.Context, req PathRequest) error {
	abs, err := existingPath(req.Path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, consts.BridgeOpenTimeout)
	defer cancel()

	name, args := openCommand(abs)
	if err := s.opener(ctx, name, args...); err != nil {
		return errclass.Wrap(fmt.Errorf("could not open %q: %w", abs, err))
	}
	return nil
}

// RevealPath shows a file in the system file manager.
func (s *Service) RevealPath(ctx context.Context, req PathRequest) error {
	abs, err := existingPath(req.Path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, consts.BridgeOpenTimeout)
	defer cancel()

	name, args := revealCommand(abs)
	if err := s.opener(ctx, name, args...); err != nil {
		return errclass.Wrap(fmt.Errorf("could not reveal %q: %w", abs, err))
	}
	return nil
}

// PickFile validates a caller-chosen file, such as a cookie file.
func (s *Service) PickFile(_ context.Context, req PathRequest) (PickedFile, error) {
	abs, err := existingPath(req.Path)
	if err != nil {
		return PickedFile{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return PickedFile{}, errclass.Wrap(err)
	}
	if info.IsDir() {
		return PickedFile{}, errclass.New(errclass.KindFileNotFound, abs+" is a directory")
	}
	return PickedFile{Path: abs, Name: info.Name(), Size: info.Size()}, nil
}

// existingPath returns the absolute form of p after checking it exists.
func existingPath(p string) (string, error) {
	if p == "" {
		return "", errclass.New(errclass.KindFileNotFound, "no path given")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errclass.Wrap(err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errclass.New(errclass.KindFileNotFound, abs)
		}
		return "", errclass.Wrap(err)
	}
	return abs, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errclass.New(errclass.KindInvalidURL, "no URL given")
	}
	return nil
}
