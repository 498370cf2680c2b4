package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordings/internal/tree"
)

func TestFanout_CallsInOrder(t *testing.T) {
	var order []string
	f := Fanout{
		tree.NotifierFunc(func(tree.Item, tree.Change) { order = append(order, "first") }),
		tree.NotifierFunc(func(tree.Item, tree.Change) { order = append(order, "second") }),
	}
	s := tree.New(tree.WithNotifier(f))
	s.Root().Add(s.NewRecording("r"))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := tree.New(tree.WithNotifier(NewLogNotifier(logger)))
	s.Root().Add(s.NewRecording("Take 1"))

	out := buf.String()
	assert.Contains(t, out, "tree changed")
	assert.Contains(t, out, "reason=added")
	assert.Contains(t, out, `name="Take 1"`)
	assert.Contains(t, out, "component=notify")
}

func TestBroadcaster_FolderAndWildcard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(nil)
	s := tree.New(tree.WithNotifier(b))
	sessions := s.NewFolder("Sessions")
	s.Root().Add(sessions)

	folderCh, _ := b.Subscribe(ctx, sessions.ID())
	allCh, _ := b.Subscribe(ctx, uuid.Nil)

	r := s.NewRecording("Take 1")
	sessions.Add(r)

	ev := receive(t, folderCh)
	assert.Equal(t, tree.Added, ev.Change.Reason)
	assert.Equal(t, sessions.ID().String(), ev.Payload[tree.ParentFolderKey])
	ev = receive(t, allCh)
	assert.Equal(t, r.ID(), ev.Change.Subject)

	s.Root().Add(s.NewRecording("Intro"))
	ev = receive(t, allCh)
	assert.Equal(t, s.Root().ID(), ev.Change.Container)
	select {
	case ev := <-folderCh:
		t.Fatalf("unexpected event for other folder: %v", ev.Change)
	default:
	}
}

func TestBroadcaster_UnsubscribeOnCancel(t *testing.T) {
	b := NewBroadcaster(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx, uuid.Nil)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscription not cleaned up")
	}
}

func TestBroadcaster_DropsForSlowSubscriber(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, subID := b.Subscribe(context.Background(), uuid.Nil)
	s := tree.New(tree.WithNotifier(b))

	for i := 0; i < subscriberBufferSize+10; i++ {
		s.Root().Add(s.NewRecording("r"))
	}

	assert.Len(t, ch, subscriberBufferSize)
	b.Unsubscribe(uuid.Nil, subID)
	b.Unsubscribe(uuid.Nil, subID)
}

func TestBroadcaster_SubscribeBufferedKeepsEveryEvent(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 200
	ch, _ := b.SubscribeBuffered(ctx, uuid.Nil, n)
	for i := range n {
		b.Notify(nil, tree.Change{Seq: int64(i + 1), Reason: tree.Added, Container: uuid.New()})
	}
	require.Len(t, ch, n)
	assert.Equal(t, int64(1), receive(t, ch).Change.Seq)
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster(nil)
	ch, _ := b.Subscribe(context.Background(), uuid.Nil)
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok)
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return Event{}
	}
}
