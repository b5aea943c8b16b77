package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JournalSchemaVersion is the entry shape written by this build.
const JournalSchemaVersion = 1

// Operation names the ledger call that produced a journal entry.
type Operation string

const (
	OpInitialize       Operation = "initialize"
	OpTransferAdmin    Operation = "transfer_admin"
	OpTransferOperator Operation = "transfer_operator"
	OpConfigureMinter  Operation = "configure_minter"
	OpRemoveMinter     Operation = "remove_minter"
	OpSetBlacklist     Operation = "set_blacklist"
	OpSetFreeze        Operation = "set_freeze"
	OpClearFreeze      Operation = "clear_freeze"
	OpWipeFrozen       Operation = "wipe_frozen"
	OpPause            Operation = "pause"
	OpUnpause          Operation = "unpause"
	OpSetOracleSource  Operation = "set_oracle_source"
	OpSetToleranceBps  Operation = "set_tolerance_bps"
	OpSetMaxStaleness  Operation = "set_max_staleness"
	OpSetRateBounds    Operation = "set_rate_bounds"
	OpSetSupplyCap     Operation = "set_supply_cap"
	OpMint             Operation = "mint"
	OpBurn             Operation = "burn"
	OpTransfer         Operation = "transfer"
)

// JournalEntry is one committed ledger operation and the events it produced.
type JournalEntry struct {
	ID            uuid.UUID       `json:"id"`
	Seq           uint64          `json:"seq"`
	SchemaVersion int             `json:"schema_version"`
	Operation     Operation       `json:"operation"`
	Actor         Address         `json:"actor"`
	At            time.Time       `json:"at"`
	Events        []EventEnvelope `json:"events"`
}

// NewJournalEntry encodes events into an entry at the current schema version.
func NewJournalEntry(seq uint64, op Operation, actor Address, at time.Time, events []Event) (*JournalEntry, error) {
	envs := make([]EventEnvelope, 0, len(events))
	for _, ev := range events {
		env, err := EncodeEvent(ev)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return &JournalEntry{
		ID:            uuid.New(),
		Seq:           seq,
		SchemaVersion: JournalSchemaVersion,
		Operation:     op,
		Actor:         actor,
		At:            at.UTC(),
		Events:        envs,
	}, nil
}

// Meta returns the context events of this entry are applied under.
func (e *JournalEntry) Meta() EventMeta {
	return EventMeta{Seq: e.Seq, Actor: e.Actor, At: e.At}
}

// DecodeEvents restores the concrete events of the entry.
func (e *JournalEntry) DecodeEvents() ([]Event, error) {
	out := make([]Event, 0, len(e.Events))
	for _, env := range e.Events {
		ev, err := DecodeEvent(env)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.Seq, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// UpgradeJournalEntry migrates an entry read from storage to the current
// schema version. Entries written before versioning (version 0) share the
// version 1 layout. Entries from a newer build are rejected.
func UpgradeJournalEntry(e *JournalEntry) error {
	switch {
	case e.SchemaVersion == 0:
		e.SchemaVersion = 1
	case e.SchemaVersion > JournalSchemaVersion:
		return fmt.Errorf("journal entry %d has schema version %d, newest supported is %d",
			e.Seq, e.SchemaVersion, JournalSchemaVersion)
	}
	return nil
}
