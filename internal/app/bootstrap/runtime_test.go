package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wellbot/wellbot-api/internal/config"
	"github.com/wellbot/wellbot-api/internal/conversation"
	"github.com/wellbot/wellbot-api/internal/notify"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")

	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logger, true))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestBuildRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client := BuildRedisClient(ctx, &appconfig.Config{RedisAddr: addr}, logging.New("error"), true)
	assert.Nil(t, client)
}

func TestBuildLLMClientRequiresProvider(t *testing.T) {
	_, err := BuildLLMClient(context.Background(), &appconfig.Config{}, nil, nil)
	assert.ErrorIs(t, err, ErrNoLLMProvider)

	_, err = BuildLLMClient(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoLLMProvider)
}

func TestBuildLLMClientOpenAIOnly(t *testing.T) {
	rt, err := BuildLLMClient(context.Background(), &appconfig.Config{OpenAIAPIKey: "sk-test"}, nil, logging.New("error"))
	require.NoError(t, err)
	require.NotNil(t, rt.Client)
	_, ok := rt.Client.(*conversation.ObservedLLMClient)
	assert.True(t, ok)
	assert.NoError(t, rt.Close())
}

func TestLLMRuntimeCloseNil(t *testing.T) {
	var rt *LLMRuntime
	assert.NoError(t, rt.Close())
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.New("error")

	_, isStub := BuildEmailSender(&appconfig.Config{}, logger).(*notify.StubEmailSender)
	assert.True(t, isStub)

	_, isStub = BuildEmailSender(nil, logger).(*notify.StubEmailSender)
	assert.True(t, isStub)

	sender := BuildEmailSender(&appconfig.Config{SendGridAPIKey: "key", SendGridFromEmail: "care@wellbot.vn"}, logger)
	_, isSendGrid := sender.(*notify.SendGridSender)
	assert.True(t, isSendGrid)
}

func TestBuildSpeechService(t *testing.T) {
	logger := logging.New("error")

	svc, err := BuildSpeechService(context.Background(), &appconfig.Config{}, nil, nil, logger)
	require.NoError(t, err)
	assert.Nil(t, svc)

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, false)
	t.Cleanup(func() { _ = client.Close() })

	svc, err = BuildSpeechService(context.Background(), &appconfig.Config{TTSAPIKey: "key", TTSMaxChars: 100, TTSCacheTTL: time.Hour}, client, nil, logger)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
