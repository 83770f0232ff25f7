// pkg/storage/redis.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ReportTTL = 24 * time.Hour

	reportPrefix = "report:"
	lastReport   = "report:last"
)

var ErrNotFound = errors.New("запись не найдена")

// Store хранит отчёты о миграции в Redis.
type Store struct {
	client *redis.Client
}

// NewStore подключается к Redis и проверяет соединение.
func NewStore(ctx context.Context, addr string) (*Store, error) {
	if addr == "" {
		return nil, errors.New("REDIS_ADDRESS не задан")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// GetJSON читает значение по ключу. Отсутствующий ключ даёт ErrNotFound.
func (s *Store) GetJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SaveReport сохраняет отчёт под его идентификатором и как последний отчёт.
func (s *Store) SaveReport(ctx context.Context, id string, report any) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, reportPrefix+id, data, ReportTTL)
		pipe.Set(ctx, lastReport, data, ReportTTL)
		return nil
	})
	return err
}

// LoadReport читает отчёт; пустой id означает последний.
func (s *Store) LoadReport(ctx context.Context, id string, report any) error {
	key := lastReport
	if id != "" {
		key = reportPrefix + id
	}
	return s.GetJSON(ctx, key, report)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
