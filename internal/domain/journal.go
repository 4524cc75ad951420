package domain

// Títulos de las entradas del journal.
const (
	EventNoTrade       = "NO TRADE"
	EventSkipped       = "SKIPPED"
	EventTradeExecuted = "TRADE EXECUTED"
	EventTradeFailed   = "TRADE FAILED"
	EventPaperOpened   = "PAPER TRADE OPENED"
	EventPaperWin      = "PAPER TRADE WIN"
	EventPaperLoss     = "PAPER TRADE LOSS"
)

// JournalField es un par clave/valor de una entrada; el orden se respeta al escribir.
type JournalField struct {
	Key   string
	Value string
}

// JournalEntry es una sección del log legible.
type JournalEntry struct {
	Title  string
	Fields []JournalField
}

// Add añade un campo y devuelve la entrada para encadenar.
func (e JournalEntry) Add(key, value string) JournalEntry {
	fields := make([]JournalField, len(e.Fields), len(e.Fields)+1)
	copy(fields, e.Fields)
	e.Fields = append(fields, JournalField{Key: key, Value: value})
	return e
}
