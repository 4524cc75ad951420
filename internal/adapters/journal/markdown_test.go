package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Journal = (*Markdown)(nil)

func TestMarkdown_AppendsSectionsUnderHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory", "kalshi-btc-trades.md")
	j := NewMarkdown(path)
	j.now = func() time.Time { return time.Date(2026, 2, 3, 14, 5, 9, 0, time.UTC) }

	require.NoError(t, j.Append(domain.JournalEntry{Title: domain.EventNoTrade}.
		Add("reason", "24h momentum +0.10% below ±0.3% gate").
		Add("data_quality", "live")))
	require.NoError(t, j.Append(domain.JournalEntry{Title: domain.EventPaperWin}.Add("id", "ABCD1234")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "# Kalshi BTC Trading Log\n\n" +
		"\n## 2026-02-03 14:05:09 UTC - NO TRADE\n" +
		"- **reason:** 24h momentum +0.10% below ±0.3% gate\n" +
		"- **data_quality:** live\n" +
		"\n---\n" +
		"\n## 2026-02-03 14:05:09 UTC - PAPER TRADE WIN\n" +
		"- **id:** ABCD1234\n" +
		"\n---\n"
	assert.Equal(t, want, string(b))
}

func TestMarkdown_KeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	require.NoError(t, os.WriteFile(path, []byte("# Kalshi BTC Trading Log\n\nprevious\n"), 0o644))

	require.NoError(t, NewMarkdown(path).Append(domain.JournalEntry{Title: domain.EventSkipped}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "previous\n\n## ")
	assert.Equal(t, 1, strings.Count(string(b), "# Kalshi BTC Trading Log"))
}

