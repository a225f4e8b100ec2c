package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/notify"
	infraRepo "app/internal/infra/repository"
	"app/internal/infra/storage"
	"app/internal/job"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/validator"
	"app/internal/worker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envはローカル開発用。無ければ環境変数だけで動く。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Supplier{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.SessionCart{},
		&model.SessionCartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderNumberSequence{},
		&model.AsyncJob{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	supplierRepo := infraRepo.NewSupplierGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	sessionCartRepo := infraRepo.NewSessionCartGormRepository(gormDB)
	jobRepo := infraRepo.NewJobGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部コラボレータ
	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	notifier := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatIDs, logger)

	//ワーカー
	runner := job.NewRunner(jobRepo, orderRepo, txManager, store, logger, cfg.TimeZone)
	pool := worker.NewPool(runner, jobRepo, cfg.WorkerCount, cfg.WorkerCount*32, logger)
	pool.Start(ctx)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo))
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, supplierRepo, orderItemRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	supplierUC := usecase.NewSupplierUsecase(supplierRepo)
	cartUC := usecase.NewCartUsecase(txManager, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, orderItemRepo, productRepo, userRepo, auditRepo, notifier, logger, cfg.TimeZone)
	adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo, orderItemRepo, productRepo, userRepo, cfg.TimeZone)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, auditRepo, logger)
	jobUC := usecase.NewJobUsecase(jobRepo, pool, filepath.Join(cfg.MediaRoot, "imports"), cfg.MaxImportMB)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, cfg.GoEnv != "dev"),
		Product:      handler.NewProductHandler(productUC),
		Category:     handler.NewCategoryHandler(categoryUC),
		Supplier:     handler.NewSupplierHandler(supplierUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, auditRepo, cfg.TimeZone),
		AdminUser:    handler.NewAdminUserHandler(adminUserUC),
		AdminJob:     handler.NewAdminJobHandler(jobUC),
	}

	//期限切れセッションカートの掃除
	go sweepSessionCarts(ctx, sessionCartRepo, logger)

	e := server.New(cfg, logger)
	server.RegisterRoutes(e, cfg, userRepo, handlers)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil {
			logger.Info("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	//サーバーを締めてから実行中のジョブを待つ
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	pool.Stop()
}

func newLogger(goEnv string) (*zap.Logger, error) {
	if goEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// 1時間ごとに期限切れのセッションカートを消す
func sweepSessionCarts(ctx context.Context, repo interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				logger.Error("session cart sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired session carts removed", zap.Int64("count", n))
			}
		}
	}
}
