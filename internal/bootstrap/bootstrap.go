package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/birkolabs/vitrin/internal/config"
	"github.com/birkolabs/vitrin/internal/database"
	"github.com/birkolabs/vitrin/internal/entity"
)

// Module runs schema and seed guarantees at startup. A failure here
// aborts boot; everything below assumes the tables and the admin
// account exist.
var Module = fx.Invoke(Run)

// Run registers the startup hook.
func Run(lc fx.Lifecycle, conns *database.Connections, cfg config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := EnsureSchema(ctx, conns.Writer); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			if err := EnsureAdmin(ctx, conns.Writer, cfg.Auth); err != nil {
				return fmt.Errorf("ensure admin: %w", err)
			}
			if err := EnsureDefaultSettings(ctx, conns.Writer); err != nil {
				return fmt.Errorf("ensure settings: %w", err)
			}
			logger.Info("bootstrap complete", zap.String("admin", cfg.Auth.AdminEmail))
			return nil
		},
	})
}

// EnsureSchema creates all tables when they are missing. Safe to run
// on every process start.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*entity.Product)(nil),
		(*entity.Order)(nil),
		(*entity.User)(nil),
		(*entity.Setting)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAdmin guarantees the configured admin identity exists,
// approved, with a hashed credential. Re-running never duplicates it.
func EnsureAdmin(ctx context.Context, db *bun.DB, auth config.Auth) error {
	existing := new(entity.User)
	err := db.NewSelect().Model(existing).Where("email = ?", auth.AdminEmail).Scan(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(auth.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &entity.User{
		Name:       auth.AdminName,
		Email:      auth.AdminEmail,
		Password:   string(hash),
		Phone:      auth.AdminPhone,
		Role:       entity.RoleAdmin,
		IsApproved: true,
	}
	_, err = db.NewInsert().Model(admin).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	return err
}

// defaultSettings holds the initial site configuration document,
// one JSON blob per section.
var defaultSettings = map[string]string{
	entity.SettingsGeneral: `{"siteName":"Birko Kuyumculuk","logoUrl":"/logo1.jpeg"}`,
	entity.SettingsHome: `{"title":"Birko Kuyumculuk","subtitle":"Zerafetin Parlak Yüzü",` +
		`"description":"Geleneksel el işçiliğini modern tasarımlarla buluşturan koleksiyonlarımızı keşfedin.",` +
		`"image":"/logo.png",` +
		`"customFields":{"heroButton1":"Ürünleri İncele","heroButton2":"Canlı Borsa",` +
		`"ctaButton1":"Ürünleri Keşfet","ctaButton2":"Giriş Yap"}}`,
	entity.SettingsNavbar: `{"logoText":"Birko Kuyumculuk","logoImage":"/logo1.jpeg",` +
		`"menuItems":[{"text":"Ana Sayfa","link":"/"},{"text":"Ürünler","link":"/urunler"},` +
		`{"text":"Borsa","link":"/borsa"}]}`,
	entity.SettingsFooter: `{"companyName":"Birko Kuyumculuk",` +
		`"description":"30 yıllık tecrübemizle kaliteli ve güvenilir hizmet sunuyoruz.",` +
		`"logoImage":"/logo1.jpeg"}`,
}

// EnsureDefaultSettings seeds missing settings sections with defaults.
// Existing sections are left untouched.
func EnsureDefaultSettings(ctx context.Context, db *bun.DB) error {
	for key, value := range defaultSettings {
		setting := &entity.Setting{Key: key, Value: value}
		_, err := db.NewInsert().Model(setting).
			On("CONFLICT (setting_key) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
