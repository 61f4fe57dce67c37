// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb indexes ledger events in sqlite so they can be queried by participant,
// kind and block range.
package eventdb

import (
	"context"
	"database/sql"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/farm/log"
)

var logger = log.WithContext("pkg", "eventdb")

type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens the event db at path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	// an in-memory db lives as long as its connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create event table")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("event db opened", "path", path, "sqlite", driverVer)
	return &EventDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// NewWriter returns a writer that inserts events in one transaction.
func (db *EventDB) NewWriter() *Writer {
	return &Writer{db: db.db}
}

// NewestBlock returns the highest block number that has events, 0 if none.
func (db *EventDB) NewestBlock(ctx context.Context) (uint32, error) {
	var n sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(blockNumber) FROM event").Scan(&n); err != nil {
		return 0, err
	}
	return uint32(n.Int64), nil
}

// Filter returns the events matching filter, all of them when filter is nil.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*Event, error) {
	const selectEvents = "SELECT blockNumber, eventIndex, kind, participant, amount, harvested, rate, endBlock FROM event"
	if filter == nil {
		return db.query(ctx, selectEvents+" ORDER BY blockNumber ASC, eventIndex ASC")
	}
	metricsHandleFilter(filter)

	var args []any
	stmt := selectEvents + " WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND blockNumber >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND blockNumber <= ?"
		}
	}
	if filter.Participant != nil {
		args = append(args, filter.Participant.Bytes())
		stmt += " AND participant = ?"
	}
	if len(filter.Kinds) > 0 {
		stmt += " AND kind IN (?" + strings.Repeat(", ?", len(filter.Kinds)-1) + ")"
		for _, k := range filter.Kinds {
			args = append(args, k)
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY blockNumber DESC, eventIndex DESC"
	} else {
		stmt += " ORDER BY blockNumber ASC, eventIndex ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			ev          Event
			participant []byte
			amount      []byte
			harvested   []byte
			rate        []byte
			endBlock    sql.NullInt64
		)
		if err := rows.Scan(
			&ev.BlockNumber,
			&ev.Index,
			&ev.Kind,
			&participant,
			&amount,
			&harvested,
			&rate,
			&endBlock,
		); err != nil {
			return nil, err
		}
		if len(participant) > 0 {
			copy(ev.Participant[:], participant)
		}
		ev.Amount = bigFrom(amount)
		ev.Harvested = bigFrom(harvested)
		ev.RewardRate = bigFrom(rate)
		ev.EndBlock = uint32(endBlock.Int64)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
