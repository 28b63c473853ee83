package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for local sqlite databases.
// Decimals are stored as TEXT and enums as plain strings.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  base_price TEXT NOT NULL,
  pricing_strategy TEXT NOT NULL DEFAULT 'flat',
  price_per_person TEXT,
  min_persons INTEGER NOT NULL DEFAULT 1,
  max_persons INTEGER,
  base_weight_grams INTEGER,
  base_weight_price TEXT,
  promo_active INTEGER NOT NULL DEFAULT 0,
  promo_type TEXT,
  promo_fixed_price TEXT,
  promo_percent TEXT,
  promo_starts_at DATETIME,
  promo_ends_at DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS product_price_tiers (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  breakpoint_qty INTEGER NOT NULL,
  price TEXT NOT NULL,
  tier_order INTEGER NOT NULL DEFAULT 0,
  promo_active INTEGER NOT NULL DEFAULT 0,
  promo_type TEXT,
  promo_fixed_price TEXT,
  promo_percent TEXT,
  promo_starts_at DATETIME,
  promo_ends_at DATETIME,
  created_at DATETIME,
  UNIQUE (product_id, breakpoint_qty)
);
CREATE TABLE IF NOT EXISTS product_weight_tiers (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  breakpoint_grams INTEGER NOT NULL,
  price TEXT NOT NULL,
  tier_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (product_id, breakpoint_grams)
);
CREATE TABLE IF NOT EXISTS product_ranges (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT,
  price_per_person TEXT NOT NULL,
  min_persons INTEGER NOT NULL DEFAULT 1,
  max_persons INTEGER,
  sort_order INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS range_discount_tiers (
  id TEXT PRIMARY KEY,
  range_id TEXT NOT NULL REFERENCES product_ranges(id) ON DELETE CASCADE,
  min_persons INTEGER NOT NULL,
  max_persons INTEGER,
  percent_off TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  UNIQUE (range_id, min_persons)
);
CREATE TABLE IF NOT EXISTS product_sections (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  description TEXT,
  fraction TEXT NOT NULL,
  price TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS quantity_discount_rules (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  breakpoint_qty INTEGER NOT NULL,
  percent_off TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (product_id, breakpoint_qty)
);
CREATE TABLE IF NOT EXISTS person_price_tiers (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  min_persons INTEGER NOT NULL,
  max_persons INTEGER,
  discount_type TEXT NOT NULL DEFAULT 'fixed',
  price_per_person TEXT,
  percent_off TEXT,
  tier_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  UNIQUE (product_id, min_persons)
);
CREATE TABLE IF NOT EXISTS promo_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  pricing_type TEXT NOT NULL DEFAULT 'flat',
  pricing_item_id TEXT,
  percent TEXT NOT NULL,
  description TEXT,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME,
  valid_until DATETIME,
  lapsed_at DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS promo_codes_context_key
  ON promo_codes (upper(code), product_id, pricing_type, coalesce(pricing_item_id, ''));
CREATE TABLE IF NOT EXISTS promo_code_redemptions (
  id TEXT PRIMARY KEY,
  promo_code_id TEXT NOT NULL REFERENCES promo_codes(id) ON DELETE CASCADE,
  order_reference TEXT NOT NULL,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS promo_code_redemptions_order_key
  ON promo_code_redemptions (promo_code_id, order_reference);
`

// ApplySQLiteSchema creates the storefront tables on a sqlite connection.
// Statements are idempotent.
func ApplySQLiteSchema(conn *gorm.DB) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
