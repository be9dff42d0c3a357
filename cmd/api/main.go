package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/proxypurple/commerce-api/internal/config"
	"github.com/proxypurple/commerce-api/internal/handler"
	"github.com/proxypurple/commerce-api/internal/repository"
	"github.com/proxypurple/commerce-api/internal/usecase"
	"github.com/proxypurple/commerce-api/shared/auth"
	"github.com/proxypurple/commerce-api/shared/logger"
	"github.com/proxypurple/commerce-api/shared/mailer"
	"github.com/proxypurple/commerce-api/shared/provider"
	"github.com/proxypurple/commerce-api/shared/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	appLogger := logger.New("commerce-api", "development")
	cfg := config.New(&appLogger)
	appLogger = logger.New("commerce-api", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error().Err(err).Msg("failed to disconnect from mongodb")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, readpref.Primary()); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to ping mongodb")
	}

	db := mongoClient.Database(cfg.MongoDatabase)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warn().Err(err).Msg("failed to ping redis, rate limiting degraded")
		}
	}

	tokenIssuer := auth.NewTokenIssuer(
		cfg.Token.Issuer,
		cfg.Token.AccessTokenSecret,
		cfg.Token.RefreshTokenSecret,
		cfg.Token.AccessTokenExpiresIn,
		cfg.Token.RefreshTokenExpiresIn,
	)
	appMailer := mailer.NewMailer(&appLogger)
	googleVerifier := provider.NewGoogleVerifier(cfg.GoogleClientID)

	validator, err := validation.New()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to initialize validator")
	}

	userRepo := repository.NewUserMongoRepository(ctx, &appLogger, db)
	otpRepo := repository.NewOTPMongoRepository(ctx, &appLogger, db)
	sessionRepo := repository.NewSessionMongoRepository(ctx, &appLogger, db)
	couponRepo := repository.NewCouponMongoRepository(ctx, &appLogger, db)
	productRepo := repository.NewProductMongoRepository(ctx, &appLogger, db)
	orderRepo := repository.NewOrderMongoRepository(ctx, &appLogger, db)

	otpUsecase := usecase.NewOTPUsecase(otpRepo, cfg)
	authUsecase := usecase.NewAuthUsecase(
		userRepo, sessionRepo, otpUsecase, tokenIssuer, appMailer, googleVerifier, &appLogger, cfg,
	)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		userRepo, sessionRepo, otpUsecase, tokenIssuer, appMailer, &appLogger, cfg,
	)
	userUsecase := usecase.NewUserUsecase(userRepo)
	couponUsecase := usecase.NewCouponUsecase(couponRepo)
	productUsecase := usecase.NewProductUsecase(productRepo)
	orderUsecase := usecase.NewOrderUsecase(orderRepo, productRepo, couponUsecase, &appLogger)

	router := handler.NewRouter(handler.RouterParams{
		Config:         cfg,
		TokenIssuer:    tokenIssuer,
		Redis:          redisClient,
		Logger:         &appLogger,
		AuthHandler:    handler.NewAuthHandler(authUsecase, passwordResetUsecase, validator, &appLogger),
		UserHandler:    handler.NewUserHandler(userUsecase, validator, &appLogger),
		CouponHandler:  handler.NewCouponHandler(couponUsecase, validator, &appLogger),
		ProductHandler: handler.NewProductHandler(productUsecase, validator, &appLogger),
		OrderHandler:   handler.NewOrderHandler(orderUsecase, validator, &appLogger),
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		appLogger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
