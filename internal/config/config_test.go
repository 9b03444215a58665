package config

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "STORAGE_MODE", "SCYLLA_HOSTS", "SCYLLA_KEYSPACE",
		"SCYLLA_USERNAME", "SCYLLA_PASSWORD", "SCYLLA_CONSISTENCY", "SCYLLA_TIMEOUT",
		"SCYLLA_REPLICATION_FACTOR", "KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "scylla", cfg.StorageMode)
	assert.Equal(t, []string{"localhost"}, cfg.ScyllaHosts)
	assert.Equal(t, "messenger", cfg.ScyllaKeyspace)
	assert.Equal(t, gocql.Quorum, cfg.ScyllaConsistency)
	assert.Equal(t, 5*time.Second, cfg.ScyllaTimeout)
	assert.Equal(t, 1, cfg.ReplicationFactor)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORAGE_MODE", "memory")
	t.Setenv("SCYLLA_HOSTS", "node1, node2 ,node3")
	t.Setenv("SCYLLA_KEYSPACE", "chat")
	t.Setenv("SCYLLA_CONSISTENCY", "one")
	t.Setenv("SCYLLA_TIMEOUT", "750ms")
	t.Setenv("SCYLLA_REPLICATION_FACTOR", "3")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC_PREFIX", "staging.")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StorageMode)
	assert.Equal(t, []string{"node1", "node2", "node3"}, cfg.ScyllaHosts)
	assert.Equal(t, "chat", cfg.ScyllaKeyspace)
	assert.Equal(t, gocql.One, cfg.ScyllaConsistency)
	assert.Equal(t, 750*time.Millisecond, cfg.ScyllaTimeout)
	assert.Equal(t, 3, cfg.ReplicationFactor)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "staging.", cfg.KafkaTopicPrefix)
}

func TestLoadRejectsUnknownStorageMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_MODE", "postgres")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownConsistency(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCYLLA_CONSISTENCY", "eventual")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCYLLA_TIMEOUT", "fast")

	_, err := Load()
	require.Error(t, err)
}

func TestParseConsistencyVariants(t *testing.T) {
	cases := map[string]gocql.Consistency{
		"":             gocql.Quorum,
		"quorum":       gocql.Quorum,
		"ONE":          gocql.One,
		"local_quorum": gocql.LocalQuorum,
		"all":          gocql.All,
	}
	for raw, want := range cases {
		got, err := parseConsistency(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}
