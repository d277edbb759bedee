package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fetcharr/internal/bridge"
	"fetcharr/internal/cookies"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/errclass"
	"fetcharr/internal/metadata"
	"fetcharr/internal/models"
	"fetcharr/internal/notify"
	"fetcharr/internal/parsing"
	"fetcharr/internal/utils/logging"

	"github.com/go-chi/chi/v5"
)

// handlePing reports that the API is up.
func (s *server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     consts.ProgramName,
		"version": consts.ProgramVersion,
	})
}

type queueStatus struct {
	Running int                 `json:"running"`
	Waiting int                 `json:"waiting"`
	Items   []*models.QueueItem `json:"items"`
}

// handleStatus lists every item in the queue.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	running, waiting := s.Downloads.Counts()
	writeJSON(w, http.StatusOK, queueStatus{
		Running: running,
		Waiting: waiting,
		Items:   s.Downloads.List(),
	})
}

// handleItemStatus returns the status of one item.
func (s *server) handleItemStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := s.lookupStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleEvents streams progress for one item as server-sent events until it finishes.
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	events, unsubscribe, err := s.Downloads.Watch(id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer unsubscribe()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				if q, found := s.Downloads.Get(id); found {
					writeEvent(w, "done", q)
				}
				flusher.Flush()
				return
			}
			writeEvent(w, "progress", ev)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.E("Error marshaling %s event: %v", name, err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}

type notifications struct {
	Active []notify.Notification `json:"active"`
	Recent []notify.Notification `json:"recent"`
}

// handleNotifications returns the progress board.
func (s *server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	reply := notifications{Active: []notify.Notification{}, Recent: []notify.Notification{}}
	if s.Board != nil {
		if active := s.Board.Active(); active != nil {
			reply.Active = active
		}
		if recent := s.Board.Recent(); recent != nil {
			reply.Recent = recent
		}
	}
	writeJSON(w, http.StatusOK, reply)
}

type downloadReply struct {
	ID       string            `json:"id"`
	Existing bool              `json:"existing"`
	Item     *models.QueueItem `json:"item"`
}

// handleDownload queues a download and returns immediately.
func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req bridge.DownloadRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, existing, err := s.Downloads.Submit(req.URL, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusAccepted
	if existing {
		status = http.StatusOK
	}
	writeJSON(w, status, downloadReply{ID: item.ID, Existing: existing, Item: item})
}

type cancelRequest struct {
	ID     string `json:"id"`
	Remove bool   `json:"remove"`
}

// handleCancel cancels a queued or running item, optionally forgetting it.
func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, errclass.New(errclass.KindParseError, "id is required"))
		return
	}

	cancel := s.Downloads.Cancel
	if req.Remove {
		cancel = s.Downloads.Remove
	}
	if err := cancel(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": req.ID, "cancelled": true})
}

// handleListHistory returns completed downloads, newest first.
func (s *server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", metadata.DefaultPlaylistLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := s.historyPage(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleDeleteHistory removes one history record.
func (s *server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deleteHistory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpen opens a path with the default application.
func (s *server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req bridge.PathRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Bridge.OpenPath(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReveal shows a path in the file manager.
func (s *server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req bridge.PathRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Bridge.RevealPath(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cookieUpload struct {
	Domain  string                    `json:"domain"`
	URL     string                    `json:"url"`
	Cookies []cookies.ExtensionCookie `json:"cookies"`
}

// handleCookies stores cookies pushed by the browser extension.
//
// The domain falls back to the page URL's base domain, then to the first cookie's domain.
func (s *server) handleCookies(w http.ResponseWriter, r *http.Request) {
	if s.Cookies == nil {
		writeError(w, errclass.New(errclass.KindDependencyMissing, "cookie storage is not configured"))
		return
	}

	var req cookieUpload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Cookies) == 0 {
		writeError(w, errclass.New(errclass.KindInvalidCookies, "no cookies in request"))
		return
	}

	domain := strings.TrimSpace(req.Domain)
	if domain == "" && req.URL != "" {
		if base, err := parsing.BaseDomain(req.URL); err == nil {
			domain = base
		}
	}
	if domain == "" {
		domain = req.Cookies[0].Domain
	}

	path, err := s.Cookies.Store(domain, req.Cookies)
	if err != nil {
		writeError(w, errclass.New(errclass.KindInvalidCookies, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "count": len(req.Cookies)})
}

// handleBridge runs a bridge operation with the request body as payload.
func (s *server) handleBridge(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "op")
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := s.Bridge.Handle(r.Context(), op, body)
	if err != nil {
		if errors.Is(err, bridge.ErrUnknownOperation) {
			logging.W("Rejected bridge call for unknown operation %q", op)
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
