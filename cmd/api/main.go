package main

import (
	"time"

	"salesapi/internal/config"
	"salesapi/internal/domain/model"
	"salesapi/internal/handler"
	"salesapi/internal/infra/broker"
	"salesapi/internal/infra/db"
	infraRepo "salesapi/internal/infra/repository"
	"salesapi/internal/logger"
	"salesapi/internal/publisher"
	"salesapi/internal/server"
	"salesapi/internal/usecase"
	auth "salesapi/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .envは無ければ環境変数だけで動かす
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Options{
		Service: "sales-api",
		Env:     cfg.GoEnv,
		Level:   cfg.LogLevel,
	})

	// DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Cart{},
		&model.CartLine{},
		&model.User{},
	); err != nil {
		panic(err)
	}

	// Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	// ブローカーは最初のpublishで遅延接続する
	conn := broker.NewConnection(cfg.RabbitMQURL, log)
	defer conn.Close()
	events := publisher.New(broker.NewProducer(conn), log)

	// usecaseに渡す部品
	clock := &realClock{}
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer([]byte(cfg.JWTSecret), auth.DefaultAccessTTL)

	// Usecase生成
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, events, clock)
	userUC := usecase.NewUserUsecase(userRepo, hasher)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)

	// Handler生成
	authH := handler.NewAuthHandler(loginUC)
	productH := handler.NewProductHandler(productUC)
	cartH := handler.NewCartHandler(cartUC)
	userH := handler.NewUserHandler(userUC)

	// Server起動
	e := server.New(cfg, authH, productH, cartH, userH)

	addr := ":" + cfg.Port
	log.Info("starting server", "addr", addr)
	if err := server.Start(e, addr); err != nil {
		panic(err)
	}
}
