package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The board is simulated; only shape and types are contractual.
// No test may assert specific values or ask > bid.
func TestQuotesShape(t *testing.T) {
	svc := NewService(Params{Logger: zap.NewNop()})

	rows := svc.Quotes(context.Background())
	require.NotEmpty(t, rows)

	names := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		assert.NotEmpty(t, row.Name)
		assert.NotZero(t, row.Bid)
		assert.NotZero(t, row.Ask)
		assert.Contains(t, []string{"up", "down"}, row.ChangeType)
		names[row.Name] = struct{}{}
	}

	// The bullion ladder is part of the board.
	assert.Contains(t, names, "Gümüş Külçe 50g")
	assert.Contains(t, names, "Gümüş Külçe 1000g")
	assert.Contains(t, names, "USD/TRY")
}

func TestQuotesSafeForConcurrentReads(t *testing.T) {
	svc := NewService(Params{Logger: zap.NewNop()})

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				svc.Quotes(context.Background())
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
