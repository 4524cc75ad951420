package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
)

const header = "# Kalshi BTC Trading Log\n\n"

// Markdown añade cada evento como una sección al final de un fichero markdown.
// Es solo de escritura: nada lo vuelve a leer.
type Markdown struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewMarkdown crea un journal en path. El fichero se crea con su cabecera al primer Append.
func NewMarkdown(path string) *Markdown {
	return &Markdown{path: path, now: time.Now}
}

// Append escribe una sección "## <fecha> - <título>" con un bullet por campo.
func (m *Markdown) Append(entry domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}

	var b strings.Builder
	if info.Size() == 0 {
		b.WriteString(header)
	}
	fmt.Fprintf(&b, "\n## %s - %s\n", m.now().Format("2006-01-02 15:04:05 MST"), entry.Title)
	for _, field := range entry.Fields {
		fmt.Fprintf(&b, "- **%s:** %s\n", field.Key, field.Value)
	}
	b.WriteString("\n---\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("journal.Append: %w", err)
	}
	return nil
}
