package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("service_name: engine-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "engine-test", cfg.ServiceName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, SourceNats, cfg.Worker.Source)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
	assert.False(t, cfg.Fix.Enabled)
	assert.Nil(t, cfg.OmsDB)
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("ENGINE_TEST_DSN", "postgres://u:p@db:5432/oms")

	cfg, err := Parse([]byte(`
oms_db:
  data_source: ${ENGINE_TEST_DSN}
  max_open_conns: 5
oms:
  enforce_positions: true
  limit_prices:
    btc:
      floor: "10"
      ceil: "1000.5"
  initial_positions:
    - owner: alice
      symbol: BTC
      quantity: 2.5
publishers:
  kafka:
    enabled: true
    topic: audit
    producer:
      brokers: ["k1:9092", "k2:9092"]
worker:
  source: kafka
`))
	require.NoError(t, err)

	require.NotNil(t, cfg.OmsDB)
	assert.Equal(t, "postgres://u:p@db:5432/oms", cfg.OmsDB.DataSource)
	assert.Equal(t, 5, cfg.OmsDB.MaxOpenConns)
	assert.True(t, cfg.Oms.EnforcePositions)
	assert.True(t, cfg.Oms.LimitPrices["btc"].Ceil.Equal(decimal.RequireFromString("1000.5")))
	require.Len(t, cfg.Oms.InitialPositions, 1)
	assert.True(t, cfg.Oms.InitialPositions[0].Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Publishers.Kafka.Producer.Brokers)
	assert.Equal(t, SourceKafka, cfg.Worker.Source)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("worker:\n  source: rabbit\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("publishers:\n  redis:\n    enabled: true\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("service_name: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_name: from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)

	t.Setenv("CONFIG_FILE", path)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ServiceName)

	t.Setenv("CONFIG_FILE", "")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrNoConfigFile)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
