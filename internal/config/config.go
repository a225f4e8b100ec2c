package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORSなどで使う）

	// 注文番号の「今日」を決めるタイムゾーン
	TimeZone *time.Location

	// 生成ファイルの保存先（LOCAL / S3）
	StorageBackend string
	MediaRoot      string
	MediaURL       string
	S3Bucket       string
	S3Region       string
	S3BasePath     string
	S3PresignTTL   time.Duration

	// Telegram通知（未設定なら通知はスキップ）
	TelegramBotToken     string
	TelegramAdminChatIDs []string

	// 取り込みファイルの上限MB
	MaxImportMB int

	// ジョブワーカー数
	WorkerCount int
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		StorageBackend: getenv("STORAGE_BACKEND", "LOCAL"),
		MediaRoot:      getenv("MEDIA_ROOT", "media"),
		MediaURL:       strings.TrimRight(getenv("MEDIA_URL", "/media"), "/"),
		S3Bucket:       os.Getenv("AWS_S3_BUCKET"),
		S3Region:       os.Getenv("AWS_S3_REGION"),
		S3BasePath:     getenv("S3_BASE_PATH", "uploads"),

		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatIDs: splitChatIDs(os.Getenv("TELEGRAM_ADMIN_CHAT_IDS")),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	// タイムゾーン（未指定はAsia/Tashkent）
	tzName := getenv("TIME_ZONE", "Asia/Tashkent")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("TIME_ZONE is invalid: %w", err)
	}
	cfg.TimeZone = loc

	presignSec, err := atoiDefault("S3_PRESIGN_EXPIRES", 900)
	if err != nil {
		return Config{}, err
	}
	cfg.S3PresignTTL = time.Duration(presignSec) * time.Second

	cfg.MaxImportMB, err = atoiDefault("MAX_IMPORT_MB", 10)
	if err != nil {
		return Config{}, err
	}

	cfg.WorkerCount, err = atoiDefault("JOB_WORKERS", 2)
	if err != nil {
		return Config{}, err
	}

	if cfg.StorageBackend == "S3" {
		if cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("AWS_S3_BUCKET is required for S3 storage")
		}
		if cfg.S3Region == "" {
			return Config{}, fmt.Errorf("AWS_S3_REGION is required for S3 storage")
		}
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// カンマ区切りでもスペース区切りでも受ける
func splitChatIDs(s string) []string {
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			ids = append(ids, f)
		}
	}
	return ids
}
