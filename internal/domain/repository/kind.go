package repository

import "ForexPulse/internal/domain/models"

// Kinds lists every data kind in refresh order.
func Kinds() []models.Kind {
	return []models.Kind{models.KindNews, models.KindCalendar, models.KindQuote}
}

// IsValidKind returns true if k is a supported data kind.
func IsValidKind(k models.Kind) bool {
	switch k {
	case models.KindNews, models.KindCalendar, models.KindQuote:
		return true
	default:
		return false
	}
}

// ParseKind converts raw string to a kind, reporting false for unknown values.
func ParseKind(s string) (models.Kind, bool) {
	k := models.Kind(s)
	return k, IsValidKind(k)
}
