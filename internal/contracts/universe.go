package contracts

import "time"

// Universe represents the symbols a run operates on
// ⭐ SSOT: S1 → S0/S2 대상 종목 전달
type Universe struct {
	Date     time.Time         `json:"date"`
	Source   string            `json:"source"`
	Symbols  []string          `json:"symbols"`
	Excluded map[string]string `json:"excluded,omitempty"` // 제외 종목: 사유
}

// Contains checks if a symbol is in the universe
func (u *Universe) Contains(symbol string) bool {
	for _, s := range u.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// IsExcluded checks if a symbol was excluded with reason
func (u *Universe) IsExcluded(symbol string) (bool, string) {
	reason, exists := u.Excluded[symbol]
	return exists, reason
}

// Count returns the number of symbols
func (u *Universe) Count() int {
	return len(u.Symbols)
}
