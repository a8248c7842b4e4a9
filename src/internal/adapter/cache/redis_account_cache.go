package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/savings-ledger/src/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	accountKeyPrefix = "ledger:account:"

	fieldVersion = "version"
	fieldData    = "data"
)

// setIfNewer replaces the cached hash only when ARGV[1] is a higher version
// than the one stored. ARGV[3] is the TTL in milliseconds; 0 keeps no expiry.
const setIfNewer = `
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`

type redisClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisAccountCache keeps a hash per account under ledger:account:<id> with
// the account's version and its JSON copy.
type RedisAccountCache struct {
	client redisClient
	ttl    time.Duration
}

var _ domain.AccountCache = (*RedisAccountCache)(nil)

func NewRedisAccountCache(client redisClient, ttl time.Duration) *RedisAccountCache {
	return &RedisAccountCache{client: client, ttl: ttl}
}

func (c *RedisAccountCache) Get(ctx context.Context, accountID string) (domain.Account, bool, error) {
	data, err := c.client.HGet(ctx, accountKey(accountID), fieldData).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("get cached account %s: %w", accountID, err)
	}

	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return domain.Account{}, false, fmt.Errorf("decode cached account %s: %w", accountID, err)
	}
	return account, true, nil
}

func (c *RedisAccountCache) Set(ctx context.Context, account domain.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", account.ID, err)
	}
	err = c.client.Eval(ctx, setIfNewer, []string{accountKey(account.ID)}, account.Version, data, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("cache account %s: %w", account.ID, err)
	}
	return nil
}

func (c *RedisAccountCache) Invalidate(ctx context.Context, accountIDs ...string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, accountKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached accounts: %w", err)
	}
	return nil
}

func accountKey(id string) string {
	return accountKeyPrefix + id
}
