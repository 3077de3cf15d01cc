package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fundlink/internal/models"
	"fundlink/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	events map[uint]*models.ReconciliationEvent
	nextID uint
}

func newFakeOutbox() *fakeOutbox {
	return &fakeOutbox{events: make(map[uint]*models.ReconciliationEvent), nextID: 1}
}

func (f *fakeOutbox) Create(_ context.Context, e *models.ReconciliationEvent) error {
	e.ID = f.nextID
	f.nextID++
	if e.Status == "" {
		e.Status = models.ReconciliationEventPending
	}
	c := *e
	f.events[e.ID] = &c
	return nil
}

func (f *fakeOutbox) GetPending(_ context.Context, limit int) ([]*models.ReconciliationEvent, error) {
	var out []*models.ReconciliationEvent
	for id := uint(1); id < f.nextID && len(out) < limit; id++ {
		if e, ok := f.events[id]; ok && e.Status == models.ReconciliationEventPending {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkSent(_ context.Context, id uint) error {
	f.events[id].Status = models.ReconciliationEventSent
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uint) error {
	f.events[id].Status = models.ReconciliationEventFailed
	return nil
}

func (f *fakeOutbox) IncrementRetry(_ context.Context, id uint) error {
	f.events[id].RetryCount++
	return nil
}

type fakeProducer struct {
	sent []string
	err  error
}

func (f *fakeProducer) Send(key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, key)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestOutboxSenderPublishesAndMarksSent(t *testing.T) {
	outbox := newFakeOutbox()
	require.NoError(t, outbox.Create(context.Background(), &models.ReconciliationEvent{
		TransactionID: "TXN-AAAA11112222",
		Topic:         "wallet.reconciliation",
		Payload:       `{"cause":"x"}`,
	}))

	producer := &fakeProducer{}
	sender := NewOutboxSender(outbox, producer, nil)
	sender.runOnce(context.Background())

	assert.Equal(t, []string{"TXN-AAAA11112222"}, producer.sent)
	assert.Equal(t, models.ReconciliationEventSent, outbox.events[1].Status)
}

func TestOutboxSenderRetriesThenFails(t *testing.T) {
	outbox := newFakeOutbox()
	require.NoError(t, outbox.Create(context.Background(), &models.ReconciliationEvent{
		TransactionID: "TXN-AAAA11112222",
	}))

	producer := &fakeProducer{err: fmt.Errorf("broker down")}
	sender := NewOutboxSender(outbox, producer, nil)

	for i := 0; i < defaultMaxRetries-1; i++ {
		sender.runOnce(context.Background())
		assert.Equal(t, models.ReconciliationEventPending, outbox.events[1].Status)
	}
	assert.Equal(t, defaultMaxRetries-1, outbox.events[1].RetryCount)

	sender.runOnce(context.Background())
	assert.Equal(t, models.ReconciliationEventFailed, outbox.events[1].Status)
}

type fakeSweepLedger struct {
	stale       []*models.Transaction
	transitions map[string]string
	failWith    map[string]error
}

func (f *fakeSweepLedger) Create(context.Context, *models.Transaction) error { return nil }
func (f *fakeSweepLedger) GetByTransactionID(context.Context, string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}
func (f *fakeSweepLedger) GetBySettlementRef(context.Context, string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeSweepLedger) Transition(_ context.Context, id, toStatus string, _ *string, _ *int64) error {
	if err, ok := f.failWith[id]; ok {
		return err
	}
	if f.transitions == nil {
		f.transitions = make(map[string]string)
	}
	f.transitions[id] = toStatus
	return nil
}

func (f *fakeSweepLedger) HistoryByAccounts(context.Context, []uint, int, int) ([]*models.Transaction, error) {
	return nil, nil
}

func (f *fakeSweepLedger) SuccessSums(context.Context, uint) (repositories.ReconciliationSums, error) {
	return repositories.ReconciliationSums{}, nil
}

func (f *fakeSweepLedger) ListStalePending(context.Context, time.Time, int) ([]*models.Transaction, error) {
	return f.stale, nil
}

func (f *fakeSweepLedger) DeleteAll(context.Context) error { return nil }

func TestStaleSweeperEscalates(t *testing.T) {
	ledger := &fakeSweepLedger{stale: []*models.Transaction{
		{TransactionID: "TXN-OLD111111111", Amount: 25000, CreatedAt: time.Now().Add(-time.Hour)},
	}}
	outbox := newFakeOutbox()

	sweeper := NewStaleSweeper(ledger, outbox, nil)
	sweeper.runOnce(context.Background())

	assert.Equal(t, models.TransactionStatusReconciliationRequired, ledger.transitions["TXN-OLD111111111"])
	require.Len(t, outbox.events, 1)
	assert.Equal(t, "TXN-OLD111111111", outbox.events[1].TransactionID)
	assert.Contains(t, outbox.events[1].Payload, "abandoned")
}

func TestStaleSweeperSkipsAlreadyFinalized(t *testing.T) {
	ledger := &fakeSweepLedger{
		stale: []*models.Transaction{
			{TransactionID: "TXN-DONE11111111", Amount: 25000},
		},
		failWith: map[string]error{"TXN-DONE11111111": repositories.ErrInvalidTransition},
	}
	outbox := newFakeOutbox()

	sweeper := NewStaleSweeper(ledger, outbox, nil)
	sweeper.runOnce(context.Background())

	assert.Empty(t, outbox.events, "finalized rows are not escalated")
}
