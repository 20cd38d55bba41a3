package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/model"
	"f1lapcompare/pkg/settings"

	"github.com/nikoksr/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister map[string][]settings.TelegramUser

func (f fakeLister) ListSubscribers(category string) ([]settings.TelegramUser, error) {
	if category == "broken" {
		return nil, errors.New("database is locked")
	}
	return f[category], nil
}

type sent struct {
	chatIDs []int64
	subject string
	message string
}

type recorder struct {
	mu   sync.Mutex
	sent []sent
}

type fakeNotifier struct {
	r       *recorder
	chatIDs []int64
}

func (f fakeNotifier) Send(ctx context.Context, subject, message string) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.sent = append(f.r.sent, sent{chatIDs: f.chatIDs, subject: subject, message: message})
	return nil
}

func (r *recorder) factory(chatIDs []int64) notify.Notifier {
	return fakeNotifier{r: r, chatIDs: chatIDs}
}

func (r *recorder) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

func report(category string) *compare.Report {
	return &compare.Report{
		ID:       "1",
		Title:    "2021 Abu Dhabi Grand Prix - Race - VER vs HAM",
		Category: category,
		Laps: [2]model.Lap{
			{Driver: "VER", LapNumber: 2, LapTime: 91400 * time.Millisecond},
			{Driver: "HAM", LapNumber: 2, LapTime: 91900 * time.Millisecond},
		},
		Delta: -500 * time.Millisecond,
	}
}

func TestNotify(t *testing.T) {
	lister := fakeLister{
		settings.Race: {{ID: "1", ChatID: 100}, {ID: "2", ChatID: 200}},
	}
	rec := &recorder{}
	m := NewManager(lister, rec.factory, []int64{200, 300}, nil)

	require.NoError(t, m.Notify(context.Background(), report(settings.Race)))
	require.NoError(t, m.Notify(context.Background(), report(settings.Practice)))

	got := rec.all()
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []int64{100, 200, 300}, got[0].chatIDs)
	assert.Equal(t, subject, got[0].subject)
	assert.Contains(t, got[0].message, "VER vs HAM")
	assert.Contains(t, got[0].message, "HAM 01:31.900 (+0.500s)")
	assert.ElementsMatch(t, []int64{200, 300}, got[1].chatIDs)
}

func TestNotifyWithoutRecipients(t *testing.T) {
	rec := &recorder{}
	m := NewManager(fakeLister{}, rec.factory, nil, nil)
	require.NoError(t, m.Notify(context.Background(), report(settings.Qual)))
	assert.Empty(t, rec.all())

	assert.Error(t, m.Notify(context.Background(), report("broken")))
}

func TestStart(t *testing.T) {
	rec := &recorder{}
	m := NewManager(fakeLister{}, rec.factory, []int64{1}, nil)
	reports := make(chan *compare.Report, 2)
	reports <- report(settings.Race)
	reports <- report(settings.Qual)
	close(reports)

	done := make(chan struct{})
	go func() {
		m.Start(context.Background(), reports)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop on closed channel")
	}
	assert.Len(t, rec.all(), 2)
}
