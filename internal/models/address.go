package models

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the byte width of an account key.
const AddressLength = 20

// Address is an opaque fixed-width account key. The zero value is the
// null address and is never a valid transfer recipient.
type Address [AddressLength]byte

// ParseAddress decodes a "0x"-prefixed hex account key. Case is ignored
// on input; the canonical textual form is lower-case hex.
func ParseAddress(s string) (Address, error) {
	var a Address

	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != AddressLength*2 {
		return a, fmt.Errorf("invalid address length: %q", s)
	}

	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}

	copy(a[:], b)
	return a, nil
}

// String returns the canonical lower-case hex form, e.g.
// "0xab5801a7d398351b8be11c439e05c5b3259aec9b".
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Checksum returns the EIP-55 mixed-case rendering used for display.
func (a Address) Checksum() string {
	lower := hex.EncodeToString(a[:])

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, len(lower))
	for i, c := range []byte(lower) {
		if c >= 'a' && c <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x08 != 0 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}

	return "0x" + string(out)
}

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON renders the canonical lower-case hex form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts any hex case.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}

	*a = parsed
	return nil
}
