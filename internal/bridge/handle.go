package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fetcharr/internal/errclass"
)

// ErrUnknownOperation is returned by Handle for unrecognized operation names.
var ErrUnknownOperation = errors.New("unknown bridge operation")

// Operation names accepted by Handle.
const (
	OpReady         = "ready"
	OpVersion       = "version"
	OpVideoInfo     = "videoInfo"
	OpPlaylistInfo  = "playlistInfo"
	OpFormats       = "formats"
	OpDownload      = "download"
	OpOpenPath      = "openPath"
	OpRevealPath    = "revealPath"
	OpPickFile      = "pickFile"
	OpCropThumbnail = "cropThumbnail"
	OpFileInfo      = "fileInfo"
	OpCacheStats    = "cacheStats"
	OpClearCache    = "clearCache"
)

// Operations lists every operation name.
var Operations = []string{
	OpReady, OpVersion, OpVideoInfo, OpPlaylistInfo, OpFormats,
	OpDownload, OpOpenPath, OpRevealPath, OpPickFile, OpCropThumbnail,
	OpFileInfo, OpCacheStats, OpClearCache,
}

// Handle decodes payload for op, runs it, and returns the reply value.
//
// Operation names match case-insensitively, ignoring '-' and '_'. Payloads that fail to
// decode yield a parse-error. Download progress is not streamed through Handle.
func (s *Service) Handle(ctx context.Context, op string, payload []byte) (any, error) {
	switch normalizeOp(op) {
	case normalizeOp(OpReady):
		return s.Ready(ctx)

	case normalizeOp(OpVersion):
		return s.Version(ctx)

	case normalizeOp(OpVideoInfo):
		var req InfoRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.VideoInfo(ctx, req)

	case normalizeOp(OpPlaylistInfo):
		var req PlaylistRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.PlaylistInfo(ctx, req)

	case normalizeOp(OpFormats):
		var req InfoRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.Formats(ctx, req)

	case normalizeOp(OpDownload):
		var req DownloadRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.Download(ctx, req, nil)

	case normalizeOp(OpOpenPath):
		var req PathRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return struct{}{}, s.OpenPath(ctx, req)

	case normalizeOp(OpRevealPath):
		var req PathRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return struct{}{}, s.RevealPath(ctx, req)

	case normalizeOp(OpPickFile):
		var req PathRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.PickFile(ctx, req)

	case normalizeOp(OpCropThumbnail):
		var req CropRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.CropThumbnail(ctx, req)

	case normalizeOp(OpFileInfo):
		var req InfoRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return s.FileInfo(ctx, req)

	case normalizeOp(OpCacheStats):
		return s.CacheStats(), nil

	case normalizeOp(OpClearCache):
		return s.ClearCache(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
}

// decode unmarshals payload into v. An empty payload leaves v zero.
func decode(payload []byte, v any) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errclass.New(errclass.KindParseError, fmt.Sprintf("invalid payload: %v", err))
	}
	return nil
}

func normalizeOp(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	return strings.NewReplacer("-", "", "_", "").Replace(op)
}
