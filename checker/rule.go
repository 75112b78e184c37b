package checker

import (
	"fmt"
	"strings"
)

// RuleID identifies one of the write channel rules.
type RuleID int

// The rules the checker enforces.
const (
	// Check1 requires w_valid on the edge after every address handshake.
	Check1 RuleID = iota + 1

	// Check2 requires the address of every handshake to be aligned to the
	// beat size.
	Check2

	// Check3 requires w_data, w_strb and w_last to hold during a stall.
	Check3

	// Check4 requires w_last on exactly the final beat of every burst.
	Check4
)

// AllRules lists every rule in order.
var AllRules = []RuleID{Check1, Check2, Check3, Check4}

func (r RuleID) String() string {
	if !r.IsValid() {
		return fmt.Sprintf("RuleID(%d)", int(r))
	}

	return fmt.Sprintf("CHECK%d", int(r))
}

// IsValid tells if r is one of the four rules.
func (r RuleID) IsValid() bool {
	return r >= Check1 && r <= Check4
}

// Description names the protocol property the rule protects.
func (r RuleID) Description() string {
	switch r {
	case Check1:
		return "missing-valid-after-handshake"
	case Check2:
		return "misaligned-address"
	case Check3:
		return "unstable-data-during-stall"
	case Check4:
		return "incorrect-last-beat-marker"
	default:
		return "unknown"
	}
}

// ParseRuleID accepts "CHECK1".."CHECK4" (case-insensitive) and the rule
// descriptions.
func ParseRuleID(s string) (RuleID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRules {
		if s == strings.ToLower(r.String()) || s == r.Description() {
			return r, nil
		}
	}

	return 0, fmt.Errorf("unknown rule %q", s)
}

// MarshalText encodes the rule as "CHECKn".
func (r RuleID) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid rule %d", int(r))
	}

	return []byte(r.String()), nil
}

// UnmarshalText decodes anything ParseRuleID accepts.
func (r *RuleID) UnmarshalText(text []byte) error {
	parsed, err := ParseRuleID(string(text))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}
