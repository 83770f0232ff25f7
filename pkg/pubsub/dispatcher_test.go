package pubsub

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestClient(t *testing.T) *PubSubClient {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("Ошибка соединения с эмулятором: %v", err)
	}
	p, err := InitPubSubClient(ctx, "test-project", "playlist-tasks", "playlist-tasks-sub", nil, option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("Ошибка клиента: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	topic, err := p.Client.CreateTopic(ctx, "playlist-tasks")
	if err != nil {
		t.Fatalf("Ошибка создания топика: %v", err)
	}
	if _, err := p.Client.CreateSubscription(ctx, "playlist-tasks-sub", pubsub.SubscriptionConfig{Topic: topic}); err != nil {
		t.Fatalf("Ошибка создания подписки: %v", err)
	}
	return p
}

func TestDecodeTask(t *testing.T) {
	if _, err := DecodeTask([]byte(`{"file":"playlists.json","mode":"auto-add"}`)); err != nil {
		t.Errorf("Неожиданная ошибка: %v", err)
	}
	bad := []string{
		`not json`,
		`{"mode":"auto-add"}`,
		`{"file":"playlists.json","mode":"sync"}`,
	}
	for _, raw := range bad {
		if _, err := DecodeTask([]byte(raw)); !errors.Is(err, ErrInvalidTask) {
			t.Errorf("Ожидалась ErrInvalidTask для %s, получено %v", raw, err)
		}
	}
}

func TestPublishRejectsInvalidTask(t *testing.T) {
	p := newTestClient(t)
	if _, err := p.PublishTask(context.Background(), Task{Mode: "add"}); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("Ожидалась ErrInvalidTask, получено %v", err)
	}
}

func TestWorkerPoolHandlesPublishedTasks(t *testing.T) {
	p := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := p.PublishTask(ctx, Task{File: "playlists.json", Playlist: "Road Trip", Mode: "auto-add"})
	if err != nil || id == "" {
		t.Fatalf("Ошибка публикации: %v", err)
	}
	// мусорное сообщение не должно доходить до обработчика
	if _, err := p.Topic.Publish(ctx, &pubsub.Message{Data: []byte("garbage")}).Get(ctx); err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}

	var mu stdsync.Mutex
	var got []Task
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- p.StartWorkerPool(runCtx, 2, func(_ context.Context, task Task) error {
			mu.Lock()
			got = append(got, task)
			mu.Unlock()
			stop()
			return nil
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Неожиданная ошибка пула: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("Задача не была обработана")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].ID != id || got[0].Playlist != "Road Trip" {
		t.Errorf("Неверная задача: %+v", got)
	}
}
