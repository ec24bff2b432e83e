package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Setting sections. The site configuration is a singleton document
// stored as one JSON blob per section.
const (
	SettingsGeneral = "general"
	SettingsHome    = "home"
	SettingsNavbar  = "navbar"
	SettingsFooter  = "footer"
)

// Setting is one section of the site settings singleton.
type Setting struct {
	bun.BaseModel `bun:"table:site_settings"`

	ID        int64     `bun:",pk,autoincrement"`
	Key       string    `bun:"setting_key,notnull,unique"`
	Value     string    `bun:"setting_value"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
