// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"database/sql"
)

type pending struct {
	blockNumber uint32
	events      []*Event
}

// Writer buffers events until Commit. Indexes are assigned at commit time and
// continue from the events already stored for the same block.
type Writer struct {
	db      *sql.DB
	pending []pending
}

// Write buffers events that happened in the given block.
func (w *Writer) Write(blockNumber uint32, events []*Event) {
	if len(events) == 0 {
		return
	}
	w.pending = append(w.pending, pending{blockNumber, events})
}

// Len returns the number of buffered events.
func (w *Writer) Len() (n int) {
	for _, p := range w.pending {
		n += len(p.events)
	}
	return
}

// Rollback drops the buffered events.
func (w *Writer) Rollback() {
	w.pending = nil
}

// Commit stores the buffered events atomically.
func (w *Writer) Commit() error {
	if len(w.pending) == 0 {
		return nil
	}
	err := w.execInTx(func(tx *sql.Tx) error {
		for _, p := range w.pending {
			var next sql.NullInt64
			if err := tx.QueryRow("SELECT MAX(eventIndex) FROM event WHERE blockNumber = ?", p.blockNumber).Scan(&next); err != nil {
				return err
			}
			index := uint32(0)
			if next.Valid {
				index = uint32(next.Int64) + 1
			}
			for _, ev := range p.events {
				var participant []byte
				if !ev.Participant.IsZero() {
					participant = ev.Participant.Bytes()
				}
				if _, err := tx.Exec("INSERT INTO event(blockNumber, eventIndex, kind, participant, amount, harvested, rate, endBlock) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
					p.blockNumber,
					index,
					ev.Kind,
					participant,
					bigValue(ev.Amount),
					bigValue(ev.Harvested),
					bigValue(ev.RewardRate),
					ev.EndBlock,
				); err != nil {
					return err
				}
				ev.BlockNumber = p.blockNumber
				ev.Index = index
				index++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, p := range w.pending {
		for _, ev := range p.events {
			metricEventsWritten().AddWithLabel(1, map[string]string{"kind": ev.Kind})
		}
	}
	w.pending = nil
	return nil
}

func (w *Writer) execInTx(proc func(*sql.Tx) error) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
