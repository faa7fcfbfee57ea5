package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-marketplace-auth/internal/application/account"
	"github.com/go-marketplace-auth/internal/application/auth"
	"github.com/go-marketplace-auth/internal/application/identity"
	"github.com/go-marketplace-auth/internal/application/notification"
	"github.com/go-marketplace-auth/internal/application/otp"
	"github.com/go-marketplace-auth/internal/config"
	"github.com/go-marketplace-auth/internal/domain"
	"github.com/go-marketplace-auth/internal/infrastructure/dynamo"
	"github.com/go-marketplace-auth/internal/infrastructure/google"
	jwtinfra "github.com/go-marketplace-auth/internal/infrastructure/jwt"
	"github.com/go-marketplace-auth/internal/infrastructure/memory"
	"github.com/go-marketplace-auth/internal/infrastructure/postgres"
	redisinfra "github.com/go-marketplace-auth/internal/infrastructure/redis"
	"github.com/go-marketplace-auth/internal/infrastructure/smtp"
	"github.com/go-marketplace-auth/internal/infrastructure/sns"
	"github.com/go-marketplace-auth/internal/logging"
	transporthttp "github.com/go-marketplace-auth/internal/transport/http"
	"github.com/go-marketplace-auth/internal/transport/http/gate"
	appmiddleware "github.com/go-marketplace-auth/internal/transport/http/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// accountStore is what every storage driver provides for accounts.
type accountStore interface {
	identity.AccountStore
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Account, string, error)
}

type stores struct {
	accounts accountStore
	tokens   otp.TokenStore
	close    func()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		config.Exitf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	slog.SetDefault(logging.New(cfg.LogLevel, !cfg.IsProduction()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codec, err := jwtinfra.NewCodec([]byte(cfg.SessionSecret))
	if err != nil {
		config.Exitf("session codec: %v", err)
	}
	policy, err := gate.LoadPolicy(cfg.RoutePolicyFile)
	if err != nil {
		config.Exitf("%v", err)
	}
	routeGate, err := gate.New(policy)
	if err != nil {
		config.Exitf("route gate: %v", err)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		config.Exitf("storage: %v", err)
	}
	defer st.close()

	var throttle auth.Throttle
	if cfg.RedisURL != "" {
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			// Throttling fails open; the service still runs without Redis.
			slog.Warn("redis unavailable, attempt throttling disabled", "err", err)
		} else {
			defer client.Close()
			throttle = redisinfra.NewThrottle(client)
		}
	}

	smsSender, err := newSMSSender(ctx, cfg, sns.NewSender)
	if err != nil {
		config.Exitf("sms sender: %v", err)
	}
	notifier := notification.NewService(notification.ServiceDeps{
		SMS:    smsSender,
		Mailer: smtp.NewMailer(cfg),
		TTL:    cfg.OTPTTL,
	})

	var googleVerifier auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(cfg.GoogleClientID)
	}

	otpSvc := otp.NewService(otp.ServiceDeps{Store: st.tokens})
	go otp.NewSweeper(otpSvc, cfg.OTPSweepInterval).Run(ctx)

	authSvc := auth.NewService(auth.ServiceDeps{
		Accounts: st.accounts,
		Resolver: identity.NewResolver(st.accounts),
		OTP:      otpSvc,
		Sessions: codec,
		Notifier: notifier,
		Throttle: throttle,
		Google:   googleVerifier,
		OTPTTL:   cfg.OTPTTL,
		OTPDebug: cfg.OTPDebug,
		Limits: auth.Limits{
			OTPSend:       cfg.OTPSendLimit,
			OTPSendWindow: cfg.OTPSendWindow,
			Signin:        cfg.SigninLimit,
			SigninWindow:  cfg.SigninWindow,
		},
	})

	limiter := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	defer limiter.Stop()

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Auth:        authSvc,
		Accounts:    account.NewService(account.ServiceDeps{Accounts: st.accounts}),
		Sessions:    codec,
		Gate:        routeGate,
		RateLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		// Creates tables and GSIs when missing; existing tables are left alone.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return &stores{
			accounts: dynamo.NewAccountRepo(client, cfg.DynamoTables.Accounts),
			tokens:   dynamo.NewVerificationRepo(client, cfg.DynamoTables.VerificationTokens),
			close:    func() {},
		}, nil
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			accounts: postgres.NewAccountRepo(pool),
			tokens:   postgres.NewVerificationRepo(pool),
			close:    pool.Close,
		}, nil
	case config.StorageMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			accounts: memory.NewAccountRepo(),
			tokens:   memory.NewVerificationRepo(),
			close:    func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// newSMSSender builds the SNS sender. Outside production a failure falls
// back to sns.LogSender, which writes codes to the log.
func newSMSSender(ctx context.Context, cfg *config.Config, build func(context.Context, *config.Config) (*sns.Sender, error)) (notification.SMSSender, error) {
	sender, err := build(ctx, cfg)
	if err == nil {
		return sender, nil
	}
	if cfg.IsProduction() {
		return nil, err
	}
	slog.Warn("SNS sender not available, codes for phone are logged only", "err", err)
	return sns.LogSender{}, nil
}
