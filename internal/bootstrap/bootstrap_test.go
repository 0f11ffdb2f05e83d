package bootstrap

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/medical-query-assistant/internal/config"
	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/answer/fastgpt"
	"github.com/kirillkom/medical-query-assistant/internal/infrastructure/answer/simulated"
)

func baseConfig() config.Config {
	return config.Config{
		LogLevel:             "info",
		MessageLocale:        "zh-CN",
		MaxQueryLength:       1000,
		RateLimitMaxRequests: 10,
		RateLimitWindowMS:    60000,
		AnswerBackend:        config.BackendSimulated,
	}
}

func TestNewBuildsSimulatedController(t *testing.T) {
	var logs bytes.Buffer
	app, err := New(context.Background(), baseConfig(), Options{Service: "medq-test", LogOutput: &logs})
	require.NoError(t, err)
	defer app.Close()

	require.IsType(t, &simulated.Fetcher{}, app.Fetcher)
	require.Nil(t, app.Events)

	ctrl := app.NewController("s-1", nil, nil)
	outcome := ctrl.HandleQuery(context.Background(), "患者出现发热症状")
	require.Equal(t, domain.StatusAnswered, outcome.Status)
	require.Len(t, outcome.Response.References, 2)

	app.LogWelcome()
	require.Contains(t, logs.String(), "医学智能检索系统已启动")
	require.Contains(t, logs.String(), `"service":"medq-test"`)
}

func TestNewBuildsFastGPTFetcher(t *testing.T) {
	cfg := baseConfig()
	cfg.AnswerBackend = config.BackendFastGPT
	cfg.FastGPTRetryMaxAttempts = 1

	app, err := New(context.Background(), cfg, Options{LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)
	require.IsType(t, &fastgpt.Client{}, app.Fetcher)

	outcome := app.NewController("s-2", nil, nil).HandleQuery(context.Background(), "诊断")
	require.Equal(t, domain.StatusFailed, outcome.Status)
	require.Equal(t, domain.CategoryConfigError, outcome.Notice.Category)
}

func TestNewSkipsEventStreamWhenDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.NATSURL = "nats://127.0.0.1:1"

	var logs bytes.Buffer
	app, err := New(context.Background(), cfg, Options{LogOutput: &logs, DisableEvents: true})
	require.NoError(t, err)
	defer app.Close()

	require.Nil(t, app.Events)
	app.LogWelcome()
	require.Contains(t, logs.String(), `"events_enabled":false`)
}

func TestNewRejectsUnknownLocale(t *testing.T) {
	cfg := baseConfig()
	cfg.MessageLocale = "fr"
	_, err := New(context.Background(), cfg, Options{LogOutput: &bytes.Buffer{}})
	require.Error(t, err)
}

func TestControllersDoNotShareLimiters(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimitMaxRequests = 1
	app, err := New(context.Background(), cfg, Options{LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)

	a := app.NewController("a", nil, nil)
	b := app.NewController("b", nil, nil)
	require.Equal(t, domain.StatusAnswered, a.HandleQuery(context.Background(), "症状").Status)
	require.Equal(t, domain.StatusRejected, a.HandleQuery(context.Background(), "症状").Status)
	require.Equal(t, domain.StatusAnswered, b.HandleQuery(context.Background(), "症状").Status)
}
