package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func newMockDB(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormcfg := &gorm.Config{
		NamingStrategy:  schema.NamingStrategy{SingularTable: true},
		PrepareStmt:     false,
		CreateBatchSize: 100,
	}
	instance, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormcfg)
	require.NoError(t, err)

	return &Database{DB: instance}, mock
}

func testRecord() *QuoteRecord {
	return &QuoteRecord{
		CreatedAt:    time.Now().UTC(),
		FromChainID:  1,
		ToChainID:    137,
		FromToken:    "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		ToToken:      "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		FromAmount:   "5000000000",
		BestProvider: "lifi",
		BestToAmount: "4987000000",
		Succeeded:    pq.StringArray{"lifi", "uniswap"},
		LatencyMs:    412,
	}
}

func TestRecorderInsertsQueuedRecords(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "quote_record"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := NewRecorder(db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	recorder.Start(ctx)
	recorder.Record(testRecord())

	cancel()
	recorder.Wait()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	db, _ := newMockDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := NewRecorder(db, logger)

	// Worker not started: the queue fills up and further records are
	// dropped without blocking.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < recorderQueueSize+10; i++ {
			recorder.Record(testRecord())
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}
}
