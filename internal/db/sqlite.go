// Package db opens and migrates the SQLite metastore that tracks uploaded
// files and their extracted lineage facts.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Pool modes. SQLite allows one writer at a time; the write pool is pinned
// to a single connection with an immediate transaction lock, reads fan out
// over a wider pool.
const (
	ModeRead  = "read"
	ModeWrite = "write"
)

const (
	busyTimeoutMS  = "5000"
	journalMode    = "WAL"
	synchronous    = "NORMAL"
	defaultReaders = 4
)

// OpenSQLite opens a *sql.DB pool for the metastore file at path.
//
// ModeWrite pins the pool to one connection and adds _txlock=immediate;
// ModeRead sizes the pool to maxOpen (0 means 4). Both set WAL journaling,
// a 5s busy timeout, synchronous=NORMAL, and foreign_keys=on.
func OpenSQLite(path, mode string, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid sqlite mode %q", mode)
	}

	pool, err := sql.Open("sqlite3", metastoreDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	switch mode {
	case ModeWrite:
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
	case ModeRead:
		if maxOpen <= 0 {
			maxOpen = defaultReaders
		}
		pool.SetMaxOpenConns(maxOpen)
		pool.SetMaxIdleConns(maxOpen)
	}
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}

	return pool, nil
}

// OpenSQLitePair opens the write pool and the read pool for the same
// metastore file. Server code should route all mutations through writeDB
// and everything else through readDB.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, nil, err
	}

	readDB, err = OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}

	return writeDB, readDB, nil
}

func metastoreDSN(path, mode string) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMS)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
