package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"sports-portal/internal/ports/notify"
)

// Publisher es la parte del cliente redis que usa el emitter.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// RedisEmitter publica cada notificación como JSON en un canal pub/sub;
// el servicio de entrega se suscribe del otro lado.
type RedisEmitter struct {
	pub     Publisher
	channel string
}

func NewRedisEmitter(pub Publisher, channel string) (*RedisEmitter, error) {
	if pub == nil {
		return nil, errors.New("redis publisher required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "notifications"
	}
	return &RedisEmitter{pub: pub, channel: channel}, nil
}

// DialRedis conecta y hace ping; una dirección mala falla al arrancar.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (e *RedisEmitter) Notify(ctx context.Context, n notify.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return e.pub.Publish(ctx, e.channel, raw).Err()
}
