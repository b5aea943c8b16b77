package domain

import (
	"encoding/hex"
	"math/big"
	"time"

	"golang.org/x/crypto/sha3"
)

// RecordKey is the content hash of an audit record, 0x-prefixed hex.
type RecordKey string

// MintRecord is the immutable audit entry of one successful mint.
type MintRecord struct {
	Key        RecordKey `json:"key"`
	Recipient  Address   `json:"recipient"`
	Amount     *big.Int  `json:"amount"`
	USDAmount  *big.Int  `json:"usd_amount"`
	Rate       *big.Int  `json:"rate"`        // Rate supplied by the minter
	OracleRate *big.Int  `json:"oracle_rate"` // Rate the amount was verified against
	Minter     Address   `json:"minter"`
	Timestamp  time.Time `json:"timestamp"`
}

// BurnRecord is the immutable audit entry of one successful burn.
type BurnRecord struct {
	Key        RecordKey `json:"key"`
	Account    Address   `json:"account"`
	Amount     *big.Int  `json:"amount"`
	MerchantID string    `json:"merchant_id"`
	Burner     Address   `json:"burner"`
	Timestamp  time.Time `json:"timestamp"`
}

// MintRecordKey hashes the tightly packed (recipient, amount, usdAmount,
// rate, timestamp) tuple with Keccak-256. Integers are packed as 32-byte
// big-endian words; the timestamp is Unix seconds.
func MintRecordKey(recipient Address, amount, usdAmount, rate *big.Int, ts time.Time) RecordKey {
	h := sha3.NewLegacyKeccak256()
	h.Write(recipient.Bytes())
	h.Write(word(amount))
	h.Write(word(usdAmount))
	h.Write(word(rate))
	h.Write(word(big.NewInt(ts.Unix())))
	return RecordKey("0x" + hex.EncodeToString(h.Sum(nil)))
}

// BurnRecordKey hashes the packed (account, amount, merchantID, timestamp)
// tuple with Keccak-256. The merchant id is packed as raw UTF-8 bytes.
func BurnRecordKey(account Address, amount *big.Int, merchantID string, ts time.Time) RecordKey {
	h := sha3.NewLegacyKeccak256()
	h.Write(account.Bytes())
	h.Write(word(amount))
	h.Write([]byte(merchantID))
	h.Write(word(big.NewInt(ts.Unix())))
	return RecordKey("0x" + hex.EncodeToString(h.Sum(nil)))
}

// word encodes v as a 32-byte big-endian word. Values wider than 256 bits
// keep their low 32 bytes.
func word(v *big.Int) []byte {
	out := make([]byte, 32)
	if v == nil || v.Sign() <= 0 {
		return out
	}
	b := v.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}
