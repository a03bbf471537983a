package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// releaseScript só apaga a chave se o token ainda for o do dono do lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis implementa um lock distribuído com SET NX + TTL, para várias
// instâncias da API apontando para o mesmo banco.
type Redis struct {
	rdb      *redis.Client
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

// NewRedis cria o lock distribuído. ttl limita quanto tempo um dono que caiu
// segura a chave; a espera máxima por aquisição é igual ao ttl.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		rdb:      rdb,
		ttl:      ttl,
		wait:     ttl,
		interval: 20 * time.Millisecond,
	}
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	backoff := retry.WithMaxDuration(r.wait, retry.NewConstant(r.interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrNotAcquired)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	return func() {
		// Contexto próprio: o release precisa rodar mesmo com a requisição cancelada.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		releaseScript.Run(ctx, r.rdb, []string{key}, token)
	}, nil
}
