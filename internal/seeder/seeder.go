package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Products seeds a demo catalog if the rows are missing.
func (s *Seeder) Products(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Product{
		{Name: "Altın Yüzük", Description: "22 ayar el işçiliği", Price: 12500, Category: "Altın", Image: "/logo1.jpeg", Stock: 5, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{Name: "Gümüş Kolye", Description: "925 ayar", Price: 1850, Category: "Gümüş", Image: "/logo1.jpeg", Stock: 12, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{Name: "Gümüş Külçe 100g", Description: "Yatırımlık külçe", Price: 4100, Category: "Külçe", Image: "/logo1.jpeg", Stock: 20, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}

	for _, sample := range samples {
		product := sample
		exists, err := s.db.NewSelect().Model((*entity.Product)(nil)).
			Where("name = ?", product.Name).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.db.NewInsert().Model(&product).Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("count", len(samples)))
	}
	return nil
}
