// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// the event table, one row per ledger event
const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	blockNumber INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	kind TEXT NOT NULL,
	participant BLOB(20),
	amount BLOB,
	harvested BLOB,
	rate BLOB,
	endBlock INTEGER,
	PRIMARY KEY (blockNumber, eventIndex)
);

CREATE INDEX IF NOT EXISTS participantIndex ON event(participant);
CREATE INDEX IF NOT EXISTS kindIndex ON event(kind);
`
