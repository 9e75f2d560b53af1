package datadog

import (
	"net"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hiring_analytics/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	_, err := NewBackend(Config{})
	assert.Error(t, err)
}

func TestLabelsToTags(t *testing.T) {
	tags := labelsToTags(metrics.Labels{"dataset": "jobs", "kind": "saved"})
	sort.Strings(tags)
	assert.Equal(t, []string{"dataset:jobs", "kind:saved"}, tags)
	assert.Nil(t, labelsToTags(nil))
}

func TestBackendSendsToAgent(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "hiring."})
	require.NoError(t, err)

	b.IncCounter(metrics.BatchesTotal, 2, metrics.Labels{"dataset": "employees"})
	require.NoError(t, b.Flush())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1024)
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(buf[:n]), "hiring.ingest_batches_total:2|c|#dataset:employees"), string(buf[:n]))
}
