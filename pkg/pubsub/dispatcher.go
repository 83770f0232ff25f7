// pkg/pubsub/dispatcher.go
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/Clean1ines/sp2ytm/pkg/logging"
	"github.com/Clean1ines/sp2ytm/pkg/sync"
)

var ErrInvalidTask = errors.New("некорректная задача")

// Task описывает перенос: файл выгрузки, необязательный плейлист и режим.
type Task struct {
	ID       string `json:"id"`
	File     string `json:"file"`
	Playlist string `json:"playlist,omitempty"`
	Liked    string `json:"liked,omitempty"`
	Mode     string `json:"mode"`
}

func (t Task) Validate() error {
	if t.File == "" && t.Liked == "" {
		return fmt.Errorf("%w: не указан файл", ErrInvalidTask)
	}
	if _, err := sync.ParseMode(t.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	return nil
}

// DecodeTask разбирает сообщение и проверяет задачу.
func DecodeTask(data []byte) (Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return task, fmt.Errorf("%w: %v", ErrInvalidTask, err)
	}
	return task, task.Validate()
}

// Handler выполняет задачу. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, task Task) error

// PubSubClient инкапсулирует клиента, топик и подписку.
type PubSubClient struct {
	Client       *pubsub.Client
	Topic        *pubsub.Topic
	Subscription *pubsub.Subscription
	logger       *logging.Logger
}

// InitPubSubClient инициализирует клиента Pub/Sub для проекта.
func InitPubSubClient(ctx context.Context, projectID, topic, subscription string, logger *logging.Logger, opts ...option.ClientOption) (*PubSubClient, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Pub/Sub: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &PubSubClient{
		Client:       client,
		Topic:        client.Topic(topic),
		Subscription: client.Subscription(subscription),
		logger:       logger,
	}, nil
}

func (p *PubSubClient) Close() error {
	p.Topic.Stop()
	return p.Client.Close()
}

// PublishTask публикует задачу и возвращает её идентификатор.
func (p *PubSubClient) PublishTask(ctx context.Context, task Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := task.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(task)
	if err != nil {
		return "", err
	}
	result := p.Topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: map[string]string{"mode": task.Mode}})
	if _, err := result.Get(ctx); err != nil {
		return "", fmt.Errorf("ошибка публикации задачи %s: %w", task.ID, err)
	}
	return task.ID, nil
}

// StartWorkerPool обрабатывает задачи не более чем workerCount параллельно, пока не отменён ctx.
// Некорректные сообщения подтверждаются и отбрасываются.
func (p *PubSubClient) StartWorkerPool(ctx context.Context, workerCount int, handle Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	p.Subscription.ReceiveSettings.MaxOutstandingMessages = workerCount
	p.Subscription.ReceiveSettings.NumGoroutines = 1

	err := p.Subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		task, err := DecodeTask(msg.Data)
		if err != nil {
			p.logger.Errorf("Ошибка разбора задачи %s: %v", msg.ID, err)
			msg.Ack()
			return
		}
		p.logger.Infof("Начало обработки задачи %s: файл %s, режим %s", task.ID, task.File, task.Mode)
		if err := handle(ctx, task); err != nil {
			p.logger.Errorf("Ошибка обработки задачи %s: %v", task.ID, err)
			msg.Nack()
			return
		}
		p.logger.Infof("Задача %s успешно обработана", task.ID)
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("ошибка получения задач из Pub/Sub: %w", err)
	}
	return nil
}
