package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx embeds the pgx.Tx interface and overrides only what WithTx touches;
// calling anything else panics, which is what we want in a unit test.
type fakeTx struct {
	pgx.Tx
	execSQL    []string
	execErr    error
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execSQL = append(t.execSQL, sql)
	return pgconn.CommandTag{}, t.execErr
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), db, func(ctx context.Context) error {
		_, execErr := FromContext(ctx).Exec(ctx, "UPDATE lab_order SET status = $1", "SLOT_BOOKED")
		return execErr
	})

	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if !tx.committed {
		t.Error("expected transaction to commit")
	}
	if tx.rolledBack {
		t.Error("did not expect rollback after commit")
	}
	if len(tx.execSQL) != 1 {
		t.Fatalf("execs = %d, want 1", len(tx.execSQL))
	}
}

func TestWithTx_InjectsTxIntoContext(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), db, func(ctx context.Context) error {
		if got := FromContext(ctx); got != Queryable(tx) {
			t.Errorf("FromContext = %v, want the open transaction", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeBeginner{tx: tx}
	boom := errors.New("slot already booked")

	err := WithTx(context.Background(), db, func(ctx context.Context) error {
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if tx.committed {
		t.Error("did not expect commit")
	}
	if !tx.rolledBack {
		t.Error("expected rollback")
	}
}

func TestWithTx_BeginError(t *testing.T) {
	db := &fakeBeginner{beginErr: errors.New("pool exhausted")}

	err := WithTx(context.Background(), db, func(ctx context.Context) error {
		t.Error("fn must not run when begin fails")
		return nil
	})

	if err == nil || !strings.Contains(err.Error(), "begin transaction") {
		t.Fatalf("err = %v, want begin transaction error", err)
	}
}

func TestWithTx_CommitError(t *testing.T) {
	tx := &fakeTx{commitErr: errors.New("connection reset")}
	db := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), db, func(ctx context.Context) error {
		return nil
	})

	if err == nil || !strings.Contains(err.Error(), "commit transaction") {
		t.Fatalf("err = %v, want commit transaction error", err)
	}
	if !tx.rolledBack {
		t.Error("expected rollback attempt after failed commit")
	}
}

func TestFromContext_NoQueryable(t *testing.T) {
	if q := FromContext(context.Background()); q != nil {
		t.Errorf("FromContext on bare context = %v, want nil", q)
	}
}
