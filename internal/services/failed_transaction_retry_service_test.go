package services

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"launchpad-backend/internal/models"
)

// fakeFailedRepo keeps parked records in memory.
type fakeFailedRepo struct {
	records []*models.FailedTransaction
	creates int
}

func (f *fakeFailedRepo) Create(ctx context.Context, ft *models.FailedTransaction) error {
	f.creates++
	f.records = append(f.records, ft)
	return nil
}

func (f *fakeFailedRepo) Update(ctx context.Context, ft *models.FailedTransaction) error {
	for i, r := range f.records {
		if r.ID == ft.ID {
			f.records[i] = ft
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeFailedRepo) GetByID(ctx context.Context, id string) (*models.FailedTransaction, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeFailedRepo) FindDue(ctx context.Context, limit int) ([]*models.FailedTransaction, error) {
	var due []*models.FailedTransaction
	for _, r := range f.records {
		if r.ShouldRetry() {
			due = append(due, r)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeFailedRepo) CountByStatus(ctx context.Context, status models.FailedTransactionStatus) (int64, error) {
	var n int64
	for _, r := range f.records {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func newTestRelayWithRepo(t *testing.T, backend *fakeBackend, failedRepo *fakeFailedRepo) *TransactionRelayService {
	t.Helper()
	relay := newTestRelay(t, backend)
	relay.failedRepo = failedRepo
	return relay
}

func TestParkedTransactionKeepsValue(t *testing.T) {
	backend := &fakeBackend{
		estimateGas: 50000,
		sendErrs: []error{
			errors.New("timeout"),
			errors.New("timeout"),
			errors.New("timeout"),
		},
	}
	repo := &fakeFailedRepo{}
	relay := newTestRelayWithRepo(t, backend, repo)

	value, _ := new(big.Int).SetString("1010000000000000000", 10)
	_, err := relay.SendContractTx(context.Background(), "publicMint", testContract, []byte{0x01}, value)
	if err == nil {
		t.Fatal("expected exhausted send to fail")
	}

	if len(repo.records) != 1 {
		t.Fatalf("parked records = %d, want 1", len(repo.records))
	}
	record := repo.records[0]
	if record.ValueWei != "1010000000000000000" {
		t.Fatalf("parked value_wei = %q, want the original payment", record.ValueWei)
	}
	if record.TxType != models.FailedTransactionTypeMint {
		t.Fatalf("tx_type = %s, want mint", record.TxType)
	}
	if record.CallData != "01" {
		t.Fatalf("call_data = %q, want 01", record.CallData)
	}
}

func TestSweeperResubmitsWithStoredValue(t *testing.T) {
	backend := &fakeBackend{estimateGas: 50000}
	repo := &fakeFailedRepo{
		records: []*models.FailedTransaction{{
			ID:          "park-1",
			TxType:      models.FailedTransactionTypeMint,
			Status:      models.FailedTransactionStatusPending,
			Contract:    testContract.Hex(),
			Method:      "publicMint",
			CallData:    "01",
			ValueWei:    "2020000000000000000",
			MaxRetries:  10,
			NextRetryAt: time.Now().Add(-time.Minute),
		}},
	}
	relay := newTestRelayWithRepo(t, backend, repo)
	sweeper := NewFailedTransactionRetryService(repo, relay)

	sweeper.sweep(context.Background())

	if len(backend.sentTxs) != 1 {
		t.Fatalf("sent txs = %d, want 1", len(backend.sentTxs))
	}
	want, _ := new(big.Int).SetString("2020000000000000000", 10)
	if backend.sentTxs[0].Value().Cmp(want) != 0 {
		t.Fatalf("resubmitted value = %s, want %s", backend.sentTxs[0].Value(), want)
	}
	if repo.records[0].Status != models.FailedTransactionStatusRecovered {
		t.Fatalf("record status = %s, want recovered", repo.records[0].Status)
	}
	if repo.records[0].TxHash == "" {
		t.Fatal("recovered record missing tx hash")
	}
}

func TestSweeperFailureDoesNotParkDuplicate(t *testing.T) {
	backend := &fakeBackend{
		estimateGas: 50000,
		sendErrs: []error{
			errors.New("timeout"),
			errors.New("timeout"),
			errors.New("timeout"),
		},
	}
	repo := &fakeFailedRepo{
		records: []*models.FailedTransaction{{
			ID:          "park-2",
			TxType:      models.FailedTransactionTypeMint,
			Status:      models.FailedTransactionStatusPending,
			Contract:    testContract.Hex(),
			Method:      "publicMint",
			CallData:    "01",
			ValueWei:    "1000",
			MaxRetries:  10,
			NextRetryAt: time.Now().Add(-time.Minute),
		}},
	}
	relay := newTestRelayWithRepo(t, backend, repo)
	sweeper := NewFailedTransactionRetryService(repo, relay)

	sweeper.sweep(context.Background())

	if repo.creates != 0 {
		t.Fatalf("sweeper retry created %d new records, want 0", repo.creates)
	}
	if len(repo.records) != 1 {
		t.Fatalf("records = %d, want the original only", len(repo.records))
	}
	record := repo.records[0]
	if record.RetryCount != 1 {
		t.Fatalf("retry_count = %d, want 1", record.RetryCount)
	}
	if record.Status != models.FailedTransactionStatusPending {
		t.Fatalf("status = %s, want pending for the next sweep", record.Status)
	}
}
