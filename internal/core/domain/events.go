package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// EventType names a domain event.
type EventType string

const (
	EventLedgerInitialized   EventType = "LEDGER_INITIALIZED"
	EventAdminTransferred    EventType = "ADMIN_TRANSFERRED"
	EventOperatorTransferred EventType = "OPERATOR_TRANSFERRED"
	EventMinterConfigured    EventType = "MINTER_CONFIGURED"
	EventMinterRemoved       EventType = "MINTER_REMOVED"
	EventAllowanceConsumed   EventType = "ALLOWANCE_CONSUMED"
	EventBlacklistUpdated    EventType = "BLACKLIST_UPDATED"
	EventAccountFrozen       EventType = "ACCOUNT_FROZEN"
	EventAccountUnfrozen     EventType = "ACCOUNT_UNFROZEN"
	EventFrozenFundsWiped    EventType = "FROZEN_FUNDS_WIPED"
	EventPaused              EventType = "PAUSED"
	EventUnpaused            EventType = "UNPAUSED"
	EventOracleSourceUpdated EventType = "ORACLE_SOURCE_UPDATED"
	EventToleranceUpdated    EventType = "TOLERANCE_UPDATED"
	EventMaxStalenessUpdated EventType = "MAX_STALENESS_UPDATED"
	EventRateBoundsUpdated   EventType = "RATE_BOUNDS_UPDATED"
	EventSupplyCapUpdated    EventType = "SUPPLY_CAP_UPDATED"
	EventOracleRateAccepted  EventType = "ORACLE_RATE_ACCEPTED"
	EventMinted              EventType = "MINTED"
	EventBurned              EventType = "BURNED"
	EventTransferred         EventType = "TRANSFERRED"
)

// Event is a state change produced by a successful operation. Events are
// journaled before they are applied, and replayed on restart.
type Event interface {
	Type() EventType
}

type LedgerInitialized struct {
	Admin        Address  `json:"admin"`
	Operator     Address  `json:"operator"`
	SupplyCap    *big.Int `json:"supply_cap"`
	ToleranceBps uint64   `json:"tolerance_bps"`
	MaxStaleness uint64   `json:"max_staleness_seconds"`
	MinRate      *big.Int `json:"min_rate"`
	MaxRate      *big.Int `json:"max_rate"`
}

type AdminTransferred struct {
	Previous Address `json:"previous"`
	New      Address `json:"new"`
}

type OperatorTransferred struct {
	Previous Address `json:"previous"`
	New      Address `json:"new"`
}

type MinterConfigured struct {
	Minter    Address  `json:"minter"`
	Allowance *big.Int `json:"allowance"`
	CanBurn   bool     `json:"can_burn"`
}

type MinterRemoved struct {
	Minter Address `json:"minter"`
}

type AllowanceConsumed struct {
	Minter    Address  `json:"minter"`
	Amount    *big.Int `json:"amount"`
	Remaining *big.Int `json:"remaining"`
}

type BlacklistUpdated struct {
	Account     Address `json:"account"`
	Blacklisted bool    `json:"blacklisted"`
}

type AccountFrozen struct {
	Account Address `json:"account"`
	Reason  string  `json:"reason"`
}

type AccountUnfrozen struct {
	Account Address `json:"account"`
	Reason  string  `json:"reason"`
}

type FrozenFundsWiped struct {
	Account Address  `json:"account"`
	Amount  *big.Int `json:"amount"`
	CaseID  string   `json:"case_id"`
}

type Paused struct {
	Reason string `json:"reason"`
}

type Unpaused struct {
	Reason string `json:"reason"`
}

type OracleSourceUpdated struct {
	Previous Address `json:"previous"`
	Source   Address `json:"source"`
	Decimals uint8   `json:"decimals"`
}

type ToleranceUpdated struct {
	Previous uint64 `json:"previous"`
	New      uint64 `json:"new"`
}

type MaxStalenessUpdated struct {
	Previous uint64 `json:"previous_seconds"`
	New      uint64 `json:"new_seconds"`
}

type RateBoundsUpdated struct {
	Min *big.Int `json:"min"`
	Max *big.Int `json:"max"`
}

type SupplyCapUpdated struct {
	Previous *big.Int `json:"previous"`
	New      *big.Int `json:"new"`
}

type OracleRateAccepted struct {
	Rate      *big.Int `json:"rate"`
	UpdatedAt int64    `json:"updated_at"`
}

type Minted struct {
	Record MintRecord `json:"record"`
}

type Burned struct {
	Record BurnRecord `json:"record"`
}

type Transferred struct {
	From   Address  `json:"from"`
	To     Address  `json:"to"`
	Amount *big.Int `json:"amount"`
}

func (LedgerInitialized) Type() EventType   { return EventLedgerInitialized }
func (AdminTransferred) Type() EventType    { return EventAdminTransferred }
func (OperatorTransferred) Type() EventType { return EventOperatorTransferred }
func (MinterConfigured) Type() EventType    { return EventMinterConfigured }
func (MinterRemoved) Type() EventType       { return EventMinterRemoved }
func (AllowanceConsumed) Type() EventType   { return EventAllowanceConsumed }
func (BlacklistUpdated) Type() EventType    { return EventBlacklistUpdated }
func (AccountFrozen) Type() EventType       { return EventAccountFrozen }
func (AccountUnfrozen) Type() EventType     { return EventAccountUnfrozen }
func (FrozenFundsWiped) Type() EventType    { return EventFrozenFundsWiped }
func (Paused) Type() EventType              { return EventPaused }
func (Unpaused) Type() EventType            { return EventUnpaused }
func (OracleSourceUpdated) Type() EventType { return EventOracleSourceUpdated }
func (ToleranceUpdated) Type() EventType    { return EventToleranceUpdated }
func (MaxStalenessUpdated) Type() EventType { return EventMaxStalenessUpdated }
func (RateBoundsUpdated) Type() EventType   { return EventRateBoundsUpdated }
func (SupplyCapUpdated) Type() EventType    { return EventSupplyCapUpdated }
func (OracleRateAccepted) Type() EventType  { return EventOracleRateAccepted }
func (Minted) Type() EventType              { return EventMinted }
func (Burned) Type() EventType              { return EventBurned }
func (Transferred) Type() EventType         { return EventTransferred }

// EventMeta is the context an event was committed under.
type EventMeta struct {
	Seq   uint64
	Actor Address
	At    time.Time
}

// EventEnvelope is the wire and storage form of an event.
type EventEnvelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEvent wraps ev in an envelope.
func EncodeEvent(ev Event) (EventEnvelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s: %w", ev.Type(), err)
	}
	return EventEnvelope{Type: ev.Type(), Payload: payload}, nil
}

// DecodeEvent restores the concrete event held by an envelope.
func DecodeEvent(env EventEnvelope) (Event, error) {
	var ev Event
	switch env.Type {
	case EventLedgerInitialized:
		ev = decodeInto[LedgerInitialized](env.Payload)
	case EventAdminTransferred:
		ev = decodeInto[AdminTransferred](env.Payload)
	case EventOperatorTransferred:
		ev = decodeInto[OperatorTransferred](env.Payload)
	case EventMinterConfigured:
		ev = decodeInto[MinterConfigured](env.Payload)
	case EventMinterRemoved:
		ev = decodeInto[MinterRemoved](env.Payload)
	case EventAllowanceConsumed:
		ev = decodeInto[AllowanceConsumed](env.Payload)
	case EventBlacklistUpdated:
		ev = decodeInto[BlacklistUpdated](env.Payload)
	case EventAccountFrozen:
		ev = decodeInto[AccountFrozen](env.Payload)
	case EventAccountUnfrozen:
		ev = decodeInto[AccountUnfrozen](env.Payload)
	case EventFrozenFundsWiped:
		ev = decodeInto[FrozenFundsWiped](env.Payload)
	case EventPaused:
		ev = decodeInto[Paused](env.Payload)
	case EventUnpaused:
		ev = decodeInto[Unpaused](env.Payload)
	case EventOracleSourceUpdated:
		ev = decodeInto[OracleSourceUpdated](env.Payload)
	case EventToleranceUpdated:
		ev = decodeInto[ToleranceUpdated](env.Payload)
	case EventMaxStalenessUpdated:
		ev = decodeInto[MaxStalenessUpdated](env.Payload)
	case EventRateBoundsUpdated:
		ev = decodeInto[RateBoundsUpdated](env.Payload)
	case EventSupplyCapUpdated:
		ev = decodeInto[SupplyCapUpdated](env.Payload)
	case EventOracleRateAccepted:
		ev = decodeInto[OracleRateAccepted](env.Payload)
	case EventMinted:
		ev = decodeInto[Minted](env.Payload)
	case EventBurned:
		ev = decodeInto[Burned](env.Payload)
	case EventTransferred:
		ev = decodeInto[Transferred](env.Payload)
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	if ev == nil {
		return nil, fmt.Errorf("decode %s: malformed payload", env.Type)
	}
	return ev, nil
}

func decodeInto[T Event](payload json.RawMessage) Event {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil
	}
	return v
}
