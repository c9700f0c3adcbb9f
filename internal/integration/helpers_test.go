//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/app"
	"github.com/couchcryptid/property-distress-service/internal/config"
	"github.com/couchcryptid/property-distress-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("distress-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeAttom matches any street containing "PGA" and reports no result for
// everything else.
func fakeAttom(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.Contains(r.URL.Query().Get("address1"), "PGA") {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"status":{"code":1,"msg":"SuccessWithoutResult"}}`)
			return
		}
		switch r.URL.Path {
		case "/attomavm/detail":
			_, _ = io.WriteString(w, `{"property":[{"avm":{"amount":{"value":300000}}}]}`)
		case "/property/basicprofile":
			_, _ = io.WriteString(w, `{"property":[{"preforeclosureActive":"Y"}]}`)
		default:
			_, _ = io.WriteString(w, `{"property":[{}]}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(broker, groupPrefix, attomURL string) *config.Config {
	return &config.Config{
		KafkaBrokers:         []string{broker},
		KafkaSourceTopic:     testSourceTopic,
		KafkaSinkTopic:       testSinkTopic,
		KafkaGroupID:         groupPrefix + "-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		BatchFlushInterval:   2 * time.Second,
		AttomAPIKey:          "test",
		AttomBaseURL:         attomURL,
		ProviderTimeout:      2 * time.Second,
		RetryMaxAttempts:     1,
		RetryTransientDelay:  10 * time.Millisecond,
		CacheBackend:         config.CacheMemory,
		WeightsPreset:        "distress",
		ConfidencePolicy:     "linear",
		MaxAddressesPerBatch: 500,
	}
}

func buildService(t *testing.T, cfg *config.Config) *app.Service {
	t.Helper()
	svc, err := app.Build(cfg, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}
