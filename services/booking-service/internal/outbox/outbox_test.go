package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/turnos/libs/kafkax"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

var outboxColumns = []string{"id", "event_id", "aggregate_type", "aggregate_id", "event_type", "payload", "traceparent", "tracestate", "created_at"}

func TestRepositoryAppend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(pgxmock.AnyArg(), "appointment", "a1", "booking.appointment.requested.v1", []byte(`{"id":"a1"}`), "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewRepository(mock)
	err = repo.Append(context.Background(), Event{
		AggregateType: "appointment",
		AggregateID:   "a1",
		EventType:     "booking.appointment.requested.v1",
		Payload:       []byte(`{"id":"a1"}`),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelayPublishBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(1), "e1", "appointment", "a1", "booking.appointment.confirmed.v1", []byte(`{}`), "", "", created).
			AddRow(int64(2), "e2", "appointment", "a2", "booking.appointment.cancelled.v1", []byte(`{}`), "", "", created))
	mock.ExpectExec("UPDATE outbox_events").
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	w := &fakeWriter{}
	relay := NewRelay(mock, NewRepository(mock), w, slog.New(slog.NewTextHandler(io.Discard, nil)), RelayConfig{BatchSize: 10})
	n, err := relay.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "booking.appointment.confirmed.v1", w.msgs[0].Topic)
	assert.Equal(t, "a1", string(w.msgs[0].Key))
	assert.Equal(t, "e1", kafkax.HeaderValue(w.msgs[0].Headers, kafkax.HeaderEventID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelayRollsBackWhenKafkaFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(outboxColumns).
			AddRow(int64(7), "e7", "appointment", "a7", "booking.appointment.requested.v1", []byte(`{}`), "", "", time.Now()))
	mock.ExpectRollback()

	w := &fakeWriter{err: errors.New("broker down")}
	relay := NewRelay(mock, NewRepository(mock), w, slog.New(slog.NewTextHandler(io.Discard, nil)), RelayConfig{})
	n, err := relay.PublishBatch(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelayEmptyBatchCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").WithArgs(50).WillReturnRows(pgxmock.NewRows(outboxColumns))
	mock.ExpectCommit()

	relay := NewRelay(mock, NewRepository(mock), &fakeWriter{}, slog.New(slog.NewTextHandler(io.Discard, nil)), RelayConfig{})
	n, err := relay.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySink(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Append(context.Background(), Event{EventType: "x"}))
	evts := m.Events()
	require.Len(t, evts, 1)
	evts[0].EventType = "mutated"
	assert.Equal(t, "x", m.Events()[0].EventType)
}
