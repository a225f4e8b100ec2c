package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はPostgresへ接続して *gorm.DB を返す。
// DATABASE_URL があればそのまま使い、無ければPOSTGRES_*から組み立てる。
func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = buildDSN()
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func buildDSN() string {
	// 注文番号の日付境界はアプリ側のTIME_ZONEで扱うので、DB接続はUTC固定にする
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC application_name=shop-api",
		getenv("POSTGRES_HOST", "localhost"),
		getenv("POSTGRES_PORT", "5432"),
		getenv("POSTGRES_USER", "shop"),
		getenv("POSTGRES_PASSWORD", "shop"),
		getenv("POSTGRES_DB", "shop"),
		getenv("POSTGRES_SSLMODE", "disable"),
	)
}

func getenv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
