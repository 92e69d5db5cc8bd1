// Package tape records the batches fed through a hand-off queue into a
// SQLite file and replays them later, preserving batch boundaries. It is
// a development and debugging aid: the feedq core itself never touches
// storage or I/O.
package tape

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tinyrt/feedq"
	"github.com/tinyrt/feedq/buffer"
)

var (
	// ErrClosed is returned by Writer and Reader methods after Close.
	ErrClosed = errors.New("tape is closed")
)

const (
	memory = ":memory:"
)

// Direction tells which queue of a pair a batch passed through.
type Direction int

const (
	// In marks batches bound for the computation, the inbound queue.
	In Direction = iota
	// Out marks batches produced by the computation, the outbound queue.
	Out
)

// Batch is one recorded enqueue: the payloads that entered a queue
// together, in order.
type Batch struct {
	// Seq is the batch ordinal within its direction, starting at 0.
	Seq int64
	// Dir is the direction the batch was recorded under.
	Dir Direction
	// Payloads hold the buffer contents in enqueue order.
	Payloads [][]byte
	// RecordedAt is the time the batch was recorded.
	RecordedAt time.Time
}

// Writer appends batches to a tape.
type Writer struct {
	db *sql.DB

	mu   sync.Mutex
	next [2]int64 // next batch ordinal, indexed by Direction
}

// Create opens a tape for appending, creating the file if it does not
// exist. Recording to an existing tape continues its batch numbering.
//
// Default configuration:
//   - file: ":memory:"
//   - durable: false
//
// An in-memory tape is private to the Writer that created it and vanishes
// on Close; use [WithFile] to record something a [Reader] can open later.
func Create(configFuncs ...ConfigFunc) (*Writer, error) {
	db, err := open(newConfig(configFuncs...))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	w := Writer{db: db}
	for _, dir := range []Direction{In, Out} {
		if err := db.QueryRow(
			`
			select coalesce(max(batch) + 1, 0) from step
			where direction = :direction
			`,
			sql.Named("direction", int(dir)),
		).Scan(&w.next[dir]); err != nil {
			return nil, fmt.Errorf("load batch ordinal: %w", err)
		}
	}

	return &w, nil
}

// Record appends one batch: the payloads that are enqueued together. The
// steps of a batch are written in a single transaction, so a tape never
// holds part of a batch. Recording no payloads is a no-op.
//
// Returns [ErrClosed] if the writer has been closed.
func (w *Writer) Record(dir Direction, payloads ...[]byte) error {
	checkDirection(dir)
	if len(payloads) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil && err.Error() == "sql: database is closed" {
		return ErrClosed
	} else if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	batch := w.next[dir]
	recordedAt := toTimestamp(time.Now())
	for _, p := range payloads {
		if p == nil {
			// A nil payload is a zero-length buffer, not a missing value.
			p = []byte{}
		}
		if _, err := tx.Exec(
			`
			insert into step (
				direction,
				batch,
				size,
				payload,
				recorded_at
			) values (
				:direction,
				:batch,
				:size,
				:payload,
				:recorded_at
			)
			`,
			sql.Named("direction", int(dir)),
			sql.Named("batch", batch),
			sql.Named("size", len(p)),
			sql.Named("payload", p),
			sql.Named("recorded_at", recordedAt),
		); err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	w.next[dir] = batch + 1
	return nil
}

// Close closes the tape.
//
// After closing, Record returns [ErrClosed].
func (w *Writer) Close() error {
	return w.db.Close()
}

// Reader reads batches back from a tape.
type Reader struct {
	db *sql.DB
}

// Open opens a tape for reading. Opening a file that was never recorded
// to yields a tape with no batches.
func Open(configFuncs ...ConfigFunc) (*Reader, error) {
	db, err := open(newConfig(configFuncs...))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	return &Reader{db: db}, nil
}

// Batches returns every batch recorded under dir, in recorded order, with
// the payload order inside each batch preserved.
//
// Returns [ErrClosed] if the reader has been closed.
func (r *Reader) Batches(dir Direction) ([]Batch, error) {
	checkDirection(dir)

	rows, err := r.db.Query(
		`
		select batch, size, payload, recorded_at
		from step
		where direction = :direction
		order by batch asc, seq asc
		`,
		sql.Named("direction", int(dir)),
	)
	if err != nil && err.Error() == "sql: database is closed" {
		return nil, ErrClosed
	} else if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	batches := make([]Batch, 0)
	for rows.Next() {
		var (
			batch      int64
			size       int
			payload    []byte
			recordedAt int64
		)
		if err := rows.Scan(&batch, &size, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(payload) != size {
			return nil, fmt.Errorf("step of batch %d holds %d bytes, recorded size is %d", batch, len(payload), size)
		}

		if n := len(batches); n == 0 || batches[n-1].Seq != batch {
			batches = append(batches, Batch{
				Seq:        batch,
				Dir:        dir,
				RecordedAt: fromTimestamp(recordedAt),
			})
		}
		last := &batches[len(batches)-1]
		last.Payloads = append(last.Payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return batches, nil
}

// Close closes the tape.
//
// After closing, Batches returns [ErrClosed].
func (r *Reader) Close() error {
	return r.db.Close()
}

// Replay wraps every recorded payload in a [buffer.Chunk] and feeds the
// batches to q with one enqueue per batch, so the original batch
// boundaries and their atomicity are preserved. It returns the chunks in
// delivery order.
func Replay(q *feedq.Queue, batches []Batch) []*buffer.Chunk {
	chunks := make([]*buffer.Chunk, 0)
	for _, b := range batches {
		bufs := make([]feedq.Buffer, len(b.Payloads))
		group := make([]*buffer.Chunk, len(b.Payloads))
		for i, p := range b.Payloads {
			c := buffer.Wrap(p)
			bufs[i] = c
			group[i] = c
		}
		q.Enqueue(bufs...)
		chunks = append(chunks, group...)
	}
	return chunks
}

func checkDirection(dir Direction) {
	if dir != In && dir != Out {
		panic("direction must be tape.In or tape.Out")
	}
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s
	if cfg.file == memory {
		params.Add("mode", "memory")
	} else {
		params.Add("_journal", "wal")
		if cfg.durable {
			params.Add("_sync", "full")
		} else {
			params.Add("_sync", "normal")
		}
	}

	db, err := sql.Open("sqlite3", "file:"+cfg.file+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	// Create the table for recorded steps.
	if _, err := db.Exec(
		`
		create table if not exists step (
			seq         integer primary key autoincrement,
			direction   int not null,
			batch       int not null,
			size        int not null,
			payload     blob not null,
			recorded_at int not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	// Create the index for the read-back logic.
	if _, err := db.Exec(
		`
		create index if not exists idx_step_direction
		on step (direction, batch, seq)
		`,
	); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	return nil
}

func toTimestamp(t time.Time) int64 {
	return t.UnixNano()
}

func fromTimestamp(timestamp int64) time.Time {
	return time.Unix(0, timestamp)
}
