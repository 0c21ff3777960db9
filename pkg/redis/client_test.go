package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comandapos/comanda-backend/pkg/config"
)

type fakeCmdable struct {
	pingErr error

	publishedChannel string
	publishedPayload any
	publishErr       error
}

func (f *fakeCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetErr(f.pingErr)
	return cmd
}

func (f *fakeCmdable) Publish(ctx context.Context, channel string, payload any) *redis.IntCmd {
	f.publishedChannel = channel
	f.publishedPayload = payload
	cmd := redis.NewIntCmd(ctx)
	cmd.SetErr(f.publishErr)
	return cmd
}

func TestPublishForwardsChannelAndPayload(t *testing.T) {
	fake := &fakeCmdable{}
	client := &Client{store: fake}

	err := client.Publish(context.Background(), "comanda:events", []byte(`{"event":"order:new"}`))
	require.NoError(t, err)
	assert.Equal(t, "comanda:events", fake.publishedChannel)
	assert.Equal(t, []byte(`{"event":"order:new"}`), fake.publishedPayload)
}

func TestPublishPropagatesError(t *testing.T) {
	fake := &fakeCmdable{publishErr: errors.New("broken pipe")}
	client := &Client{store: fake}

	err := client.Publish(context.Background(), "comanda:events", "x")
	assert.ErrorContains(t, err, "broken pipe")
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}

	assert.Error(t, client.Ping(context.Background()))
	assert.Error(t, client.Publish(context.Background(), "c", "x"))
	_, err := client.Subscribe(context.Background(), "c")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptionsFromConfigPrefersURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:          "redis://:secret@localhost:6380/2",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 10, opts.PoolSize)
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}
