package market

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/dto"
)

var serviceTracer = otel.Tracer("github.com/birkolabs/vitrin/service/market")

// Service produces the simulated price board for the storefront
// widget. The numbers are decorative: trigonometric drift plus random
// noise around fixed bases. Nothing may assume ask > bid or any other
// relation between them.
type Service struct {
	logger *zap.Logger

	// rngMu guards rng; rand.Rand is not safe for concurrent handlers.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		logger: p.Logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// instrument is a simulated base quote. bid/ask are TRY prices;
// spreadPct drives the displayed spread column.
type instrument struct {
	name      string
	base      float64
	spreadPct float64
	// period scales the drift so the rows don't all move in sync.
	period float64
}

var instruments = []instrument{
	{name: "Gram Altın", base: 2450, spreadPct: 0.008, period: 97},
	{name: "Çeyrek Altın", base: 4010, spreadPct: 0.010, period: 113},
	{name: "Yarım Altın", base: 8020, spreadPct: 0.010, period: 127},
	{name: "Tam Altın", base: 16040, spreadPct: 0.010, period: 139},
	{name: "Cumhuriyet Altını", base: 16550, spreadPct: 0.012, period: 149},
	{name: "22 Ayar Bilezik", base: 2290, spreadPct: 0.015, period: 157},
	{name: "Gram Gümüş", base: 31, spreadPct: 0.020, period: 83},
	{name: "Hurda Gümüş", base: 27, spreadPct: 0.030, period: 89},
	{name: "Granül Gümüş", base: 33, spreadPct: 0.025, period: 101},
	{name: "USD/TRY", base: 34.1, spreadPct: 0.004, period: 71},
	{name: "EUR/TRY", base: 36.8, spreadPct: 0.004, period: 73},
}

// silverBarSizes is the bullion ladder in grams.
var silverBarSizes = []int{50, 100, 250, 500, 1000}

// Quotes returns the current simulated board.
func (s *Service) Quotes(ctx context.Context) []dto.MarketRow {
	_, span := serviceTracer.Start(ctx, "MarketService.Quotes")
	defer span.End()

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	now := float64(time.Now().Unix())
	rows := make([]dto.MarketRow, 0, len(instruments)+len(silverBarSizes))
	for _, inst := range instruments {
		rows = append(rows, s.quote(inst, now))
	}

	silverGram := s.quote(instruments[6], now)
	for _, grams := range silverBarSizes {
		rows = append(rows, dto.MarketRow{
			Name:       fmt.Sprintf("Gümüş Külçe %dg", grams),
			Bid:        round2(silverGram.Bid * float64(grams)),
			Ask:        round2(silverGram.Ask * float64(grams)),
			Change:     silverGram.Change,
			ChangeType: silverGram.ChangeType,
			Spread:     round2(silverGram.Spread * float64(grams)),
		})
	}
	return rows
}

func (s *Service) quote(inst instrument, now float64) dto.MarketRow {
	drift := math.Sin(now/inst.period) * 0.01
	noise := (s.rng.Float64() - 0.5) * 0.006
	mid := inst.base * (1 + drift + noise)
	halfSpread := mid * inst.spreadPct / 2

	change := round2((drift + noise) * 100)
	changeType := "up"
	if change < 0 {
		changeType = "down"
	}

	return dto.MarketRow{
		Name:       inst.name,
		Bid:        round2(mid - halfSpread),
		Ask:        round2(mid + halfSpread),
		Change:     change,
		ChangeType: changeType,
		Spread:     round2(halfSpread * 2),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
