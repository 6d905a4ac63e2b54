package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Transport posts submission requests to a docriver transaction endpoint.
type Transport struct {
	client   *http.Client
	endpoint string
	logger   *slog.Logger
}

// NewTransport creates a transport for endpoint. A nil client uses
// http.DefaultClient; the request timeout is enforced by Send, not the client.
func NewTransport(endpoint string, client *http.Client, logger *slog.Logger) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return &Transport{
		client:   client,
		endpoint: endpoint,
		logger:   logger.With("system", "transport"),
	}
}

// Endpoint returns the URL requests are posted to.
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// Send posts req and races the exchange against timeout. Exactly one outcome
// is returned: the exchange result when it finishes first, or KindTimedOut
// after aborting the in-flight request. A late exchange result is discarded.
func (t *Transport) Send(ctx context.Context, req Request, timeout time.Duration) Outcome {
	reqCtx, abort := context.WithCancel(ctx)
	defer abort()

	results := make(chan Outcome, 1)
	go func() {
		results <- t.exchange(reqCtx, req)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-results:
		return o
	case <-timer.C:
		abort()
		t.logger.Warn("submission timed out", "endpoint", t.endpoint, "timeout", timeout)
		return timedOut()
	}
}

func (t *Transport) exchange(ctx context.Context, req Request) Outcome {
	body, contentType := encodeMultipart(req)
	defer body.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return networkFailure(fmt.Sprintf("create request: %v", err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return networkFailure(err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkFailure(fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return rejected(resp.StatusCode, string(data))
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return networkFailure(fmt.Sprintf("decode response: %v", err))
	}
	receipt.Raw = json.RawMessage(data)

	return succeeded(resp.StatusCode, &receipt)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart streams req as a multipart/form-data body. Attachments are
// opened lazily as the body is read; a write failure is surfaced to the reader.
func encodeMultipart(req Request) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeFields(mw, req.Fields()))
	}()

	return pr, mw.FormDataContentType()
}

func writeFields(mw *multipart.Writer, fields []Field) error {
	for _, f := range fields {
		if !f.IsFile() {
			if err := mw.WriteField(f.Name, f.Value); err != nil {
				return fmt.Errorf("write field %s: %w", f.Name, err)
			}
			continue
		}
		if err := writeFile(mw, f.Name, *f.File); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeFile(mw *multipart.Writer, name string, a Attachment) error {
	header := make(textproto.MIMEHeader)
	header.Set(
		"Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(name), quoteEscaper.Replace(a.Filename)),
	)
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create part %s: %w", a.Filename, err)
	}

	src, err := a.Open()
	if err != nil {
		return fmt.Errorf("open attachment %s: %w", a.Filename, err)
	}
	defer src.Close()

	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("write attachment %s: %w", a.Filename, err)
	}
	return nil
}
