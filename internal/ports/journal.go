package ports

import "github.com/alejandrodnm/btcbot/internal/domain"

// Journal es el log legible de decisiones y trades. Solo se escribe, nunca se relee.
type Journal interface {
	Append(entry domain.JournalEntry) error
}
