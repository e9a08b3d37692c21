package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datesshop/internal/config"
	"datesshop/internal/domain/model"
	"datesshop/internal/handler"
	"datesshop/internal/infra/cache"
	"datesshop/internal/infra/db"
	"datesshop/internal/infra/export"
	"datesshop/internal/infra/mail"
	"datesshop/internal/infra/payment"
	infraRepo "datesshop/internal/infra/repository"
	"datesshop/internal/infra/storage"
	"datesshop/internal/logger"
	"datesshop/internal/middleware"
	repo "datesshop/internal/repository"
	"datesshop/internal/server"
	"datesshop/internal/usecase"
	auth "datesshop/internal/usecase/auth_usecase"
	"datesshop/internal/validator"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load(".env", "../.env")
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}
	log := logger.New(cfg.LogLevel, !cfg.IsProd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	if err := db.Seed(gormDB, cfg.PaymentGatewayCode); err != nil {
		log.Fatal().Err(err).Msg("db seed")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	var productRepo repo.ProductRepository = infraRepo.NewProductGormRepository(gormDB)
	var lookupRepo repo.LookupRepository = infraRepo.NewLookupGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	gatewayRepo := infraRepo.NewPaymentGatewayGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentTransactionGormRepository(gormDB)
	contactRepo := infraRepo.NewContactMessageGormRepository(gormDB)
	subRepo := infraRepo.NewEmailSubscriptionGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	dateRepo := infraRepo.NewContentGormRepository[model.Date](gormDB, infraRepo.ContentOptions{
		SearchColumns: []string{"name_en", "name_sv", "origin_en", "origin_sv"},
	})
	collectionRepo := infraRepo.NewContentGormRepository[model.DatesCollection](gormDB, infraRepo.ContentOptions{
		SearchColumns: []string{"title_en", "title_sv"},
		Preloads:      []string{"Dates"},
	})
	galleryRepo := infraRepo.NewContentGormRepository[model.Gallery](gormDB, infraRepo.ContentOptions{
		SearchColumns: []string{"title_en", "title_sv"},
	})
	sectionRepo := infraRepo.NewContentGormRepository[model.Section](gormDB, infraRepo.ContentOptions{
		SearchColumns: []string{"key", "title_en", "title_sv"},
	})
	faqRepo := infraRepo.NewContentGormRepository[model.Faq](gormDB, infraRepo.ContentOptions{
		SearchColumns: []string{"question_en", "question_sv"},
	})

	// redisがあれば公開一覧をキャッシュ
	var listing usecase.ListingInvalidator
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cache disabled")
		} else {
			defer rdb.Close()
			rc := cache.NewRedisCache(rdb)
			cachedProducts := cache.NewProductRepository(productRepo, rc, cfg.CacheTTL, log)
			productRepo = cachedProducts
			listing = cachedProducts
			lookupRepo = cache.NewLookupRepository(lookupRepo, rc, cfg.CacheTTL, log)
		}
	}

	// 外部サービス
	payClient := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentSecretKey, &http.Client{Timeout: 15 * time.Second})
	var mailer mail.Mailer
	if cfg.PostmarkServerToken != "" {
		mailer = mail.NewPostmarkMailer(cfg.PostmarkServerToken, cfg.MailFrom)
	} else {
		log.Warn().Msg("POSTMARK_SERVER_TOKEN empty, mails are only logged")
		mailer = mail.NewLogMailer(log)
	}
	store := storage.NewLocalStorage(cfg.UploadDir, cfg.UploadMaxBytes)

	//bcrypt（会員登録：Hash / ログイン：Verify）
	authValidator := validator.NewAuthValidator(userRepo)
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	clock := auth.SystemClock{}

	//Usecase生成
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo, txm)
	registerUC := auth.NewRegisterUserUsecase(userRepo, authValidator, hasher, clock)
	loginUC := auth.NewLoginUsecase(userRepo, authValidator, verifier, issuer, cartUC, clock)
	customerUC := usecase.NewCustomerUsecase(userRepo, auditRepo)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo, listing, export.WriteProducts, cfg.Currency)
	lookupUC := usecase.NewLookupUsecase(lookupRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txm, orderRepo, orderItemRepo, gatewayRepo, paymentRepo, payClient, mailer, listing, usecase.CheckoutConfig{
		Currency:      cfg.Currency,
		GatewayCode:   cfg.PaymentGatewayCode,
		WebhookSecret: cfg.PaymentWebhookSecret,
	})
	orderUC := usecase.NewOrderUsecase(txm)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, payClient, listing)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	contactUC := usecase.NewContactUsecase(txm, contactRepo, mailer, cfg.ShopInbox)
	subUC := usecase.NewSubscriptionUsecase(subRepo, mailer, cfg.FEURL)
	uploadUC := usecase.NewUploadUsecase(store)

	//Handler生成
	e := server.New(cfg, log)
	server.RegisterRoutes(e, cfg, userRepo,
		[]server.PublicRouteRegistrar{handler.NewProductHandler(productUC)},
		handler.NewAuthHandler(registerUC, loginUC, customerUC, middleware.StrictRateLimit()),
		handler.NewLookupHandler(lookupUC),
		handler.NewAdminProductHandler(productUC),
		handler.NewDateHandler(usecase.NewContentUsecase(dateRepo, usecase.DateRules)),
		handler.NewCollectionHandler(usecase.NewCollectionUsecase(collectionRepo, infraRepo.NewCollectionDatesGormRepository(gormDB))),
		handler.NewGalleryHandler(usecase.NewContentUsecase(galleryRepo, usecase.GalleryRules)),
		handler.NewSectionHandler(usecase.NewContentUsecase(sectionRepo, usecase.SectionRules)),
		handler.NewFaqHandler(usecase.NewContentUsecase(faqRepo, usecase.FaqRules)),
		handler.NewCartHandler(cartUC),
		handler.NewCheckoutHandler(checkoutUC),
		handler.NewOrderHandler(orderUC),
		handler.NewAdminOrderHandler(adminOrderUC, auditUC),
		handler.NewContactHandler(contactUC, subUC, middleware.StrictRateLimit()),
		handler.NewUploadHandler(uploadUC),
	)

	//Server起動
	if err := server.Start(ctx, e, ":"+cfg.Port, log); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
