package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/workers"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

type reportWorker struct {
	*workers.BaseWorker
}

func (w *reportWorker) Run(ctx context.Context) error { return nil }

type staticPool struct {
	members []workers.Worker
}

func (p *staticPool) GetWorkers() []workers.Worker { return p.members }

func TestWorkerReport_NoPoolAttached(t *testing.T) {
	h := &Handler{log: logger.Get()}
	assert.Nil(t, h.workerReport())
}

func TestWorkerReport(t *testing.T) {
	crawler := &reportWorker{BaseWorker: workers.NewBaseWorker("price_crawl", time.Hour, true)}
	crawler.RecordRun(2 * time.Second)
	crawler.RecordRun(4 * time.Second)

	scanner := &reportWorker{BaseWorker: workers.NewBaseWorker("risk_scan", time.Hour, true)}
	scanner.RecordError(errors.New("clickhouse unreachable"), time.Second)

	idle := &reportWorker{BaseWorker: workers.NewBaseWorker("reddit_collect", time.Hour, false)}

	h := &Handler{log: logger.Get()}
	h.AttachWorkers(&staticPool{members: []workers.Worker{crawler, scanner, idle}})

	report := h.workerReport()
	require.Len(t, report, 3)

	crawl := report["price_crawl"]
	assert.True(t, crawl.Enabled)
	assert.Equal(t, int64(2), crawl.Runs)
	assert.Zero(t, crawl.Errors)
	assert.Equal(t, (3 * time.Second).String(), crawl.AvgDuration)
	assert.Empty(t, crawl.LastError)
	assert.NotEmpty(t, crawl.LastRun)

	scan := report["risk_scan"]
	assert.Equal(t, int64(1), scan.Runs)
	assert.Equal(t, int64(1), scan.Errors)
	assert.Contains(t, scan.LastError, "clickhouse unreachable")

	collect := report["reddit_collect"]
	assert.False(t, collect.Enabled)
	assert.Zero(t, collect.Runs)
	assert.Empty(t, collect.LastRun)
}
