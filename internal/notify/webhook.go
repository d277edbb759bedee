package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"
	fnet "fetcharr/internal/net"
	"fetcharr/internal/utils/logging"
)

const applicationJSON = "application/json"

var (
	regClient = &http.Client{Timeout: consts.HTTPClientTimeout}
	lanClient = &http.Client{
		Timeout: consts.HTTPClientTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
)

// Payload is the JSON body posted to webhook URLs.
type Payload struct {
	Event    string               `json:"event"`
	ID       string               `json:"id"`
	URL      string               `json:"url"`
	Title    string               `json:"title,omitempty"`
	Status   consts.DownloadState `json:"status"`
	FilePath string               `json:"filePath,omitempty"`
	FileSize int64                `json:"fileSize,omitempty"`
	ExitCode int                  `json:"exitCode"`
	Error    string               `json:"error,omitempty"`
	Kind     string               `json:"errorKind,omitempty"`
	Time     time.Time            `json:"time"`
}

// Webhook posts completion and failure events to the configured URLs.
type Webhook struct {
	URLs []string
}

// NewWebhook returns a webhook sink, or nil if no URLs are set.
func NewWebhook(urls []string) *Webhook {
	if len(urls) == 0 {
		return nil
	}
	return &Webhook{URLs: urls}
}

func (w *Webhook) Show(*models.QueueItem)      {}
func (w *Webhook) Update(models.ProgressEvent) {}
func (w *Webhook) Dismiss(string)              {}

// Completed implements Sink.
func (w *Webhook) Completed(item *models.QueueItem) {
	w.post("completed", item)
}

// Failed implements Sink.
func (w *Webhook) Failed(item *models.QueueItem) {
	w.post("failed", item)
}

func (w *Webhook) post(event string, item *models.QueueItem) {
	p := Payload{
		Event:    event,
		ID:       item.ID,
		URL:      item.URL,
		Title:    item.Title,
		Status:   item.State,
		FilePath: item.FilePath,
		FileSize: item.FileSize,
		ExitCode: item.ExitCode,
		Time:     time.Now(),
	}
	if item.Error != nil {
		p.Error = item.Error.Message
		p.Kind = string(item.Error.Kind)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), consts.HTTPClientTimeout)
		defer cancel()
		if err := w.Send(ctx, p); err != nil {
			logging.E("Webhook notification for %q failed: %v", item.URL, err)
		}
	}()
}

// Send posts p to every URL and joins the failures.
func (w *Webhook) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	errs := make([]error, 0, len(w.URLs))
	for _, notifyURL := range w.URLs {
		parsed, err := url.Parse(notifyURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid notification URL %q: %w", notifyURL, err))
			continue
		}

		client := regClient
		if fnet.IsPrivateNetwork(parsed.Host) {
			client = lanClient
		}

		if err := send(ctx, client, notifyURL, body); err != nil {
			errs = append(errs, fmt.Errorf("failed to notify URL %q: %w", notifyURL, err))
			continue
		}
		logging.D(1, "Notified URL %q of %s event for %q", notifyURL, p.Event, p.URL)
	}
	return errors.Join(errs...)
}

func send(ctx context.Context, client *http.Client, notifyURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notifyURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", applicationJSON)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.E("Failed to close HTTP response body: %v", err)
		}
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification failed with status %d", resp.StatusCode)
	}
	return nil
}
