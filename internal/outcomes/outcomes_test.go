package outcomes_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/internal/infrastructure"
	"github.com/JaimeStill/docriver/internal/outcomes"
	"github.com/JaimeStill/docriver/pkg/lifecycle"
	"github.com/JaimeStill/docriver/pkg/pubsub"
	"github.com/JaimeStill/docriver/pkg/storage"
	"github.com/JaimeStill/docriver/pkg/submission"
)

type countingPublisher struct{ keys []string }

func (p *countingPublisher) Publish(_ context.Context, key string, _ pubsub.Envelope) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *countingPublisher) Close() error { return nil }

type memStore struct{ keys []string }

func (m *memStore) Start(*lifecycle.Coordinator) error { return nil }

func (m *memStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	io.Copy(io.Discard, r)
	m.keys = append(m.keys, key)
	return nil
}

func (m *memStore) Download(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(&bytes.Buffer{}), nil
}

func (m *memStore) Delete(context.Context, string) error          { return nil }
func (m *memStore) Exists(context.Context, string) (bool, error) { return true, nil }

var _ storage.System = (*memStore)(nil)

func TestAttach(t *testing.T) {
	cfg := &config.Config{
		Submission: submission.Config{Realm: "p1"},
		Events:     pubsub.Config{URL: "amqp://localhost", KeyPrefix: "submission"},
	}
	pub := &countingPublisher{}
	store := &memStore{}
	infra := &infrastructure.Infrastructure{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Publisher: pub,
		Storage:   store,
	}

	sinks := outcomes.New(cfg, infra)
	if sinks.Journal != nil {
		t.Error("journal built without a database")
	}
	if got := sinks.Enabled(); !slices.Equal(got, []string{"receipts", "events"}) {
		t.Errorf("enabled: got %v", got)
	}

	d := submission.NewDispatcher(nil)
	detach := sinks.Attach(d)

	ok := submission.Outcome{Kind: submission.KindSuccess, Receipt: &submission.Receipt{Tx: "T1"}}
	d.Dispatch(context.Background(), submission.NewEvent(ok))
	d.Dispatch(context.Background(), submission.NewEvent(submission.Outcome{Kind: submission.KindTimedOut}))

	if !slices.Equal(pub.keys, []string{"submission.result", "submission.error"}) {
		t.Errorf("published: got %v", pub.keys)
	}
	if !slices.Equal(store.keys, []string{"receipts/p1/T1.json"}) {
		t.Errorf("archived: got %v", store.keys)
	}

	detach()
	d.Dispatch(context.Background(), submission.NewEvent(ok))
	if len(pub.keys) != 2 {
		t.Errorf("listener ran after detach: %v", pub.keys)
	}
}
