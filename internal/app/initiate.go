package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sethvargo/go-retry"

	"github.com/fursurecare/otpservice/internal/pkg/clock"
	"github.com/fursurecare/otpservice/internal/pkg/config"
	"github.com/fursurecare/otpservice/internal/pkg/goroutine"
	"github.com/fursurecare/otpservice/internal/pkg/hash"
	"github.com/fursurecare/otpservice/internal/pkg/idempotency"
	"github.com/fursurecare/otpservice/internal/pkg/instrument"
	"github.com/fursurecare/otpservice/internal/pkg/jwt"
	"github.com/fursurecare/otpservice/internal/pkg/mail"
	"github.com/fursurecare/otpservice/internal/pkg/messaging"
	"github.com/fursurecare/otpservice/internal/pkg/otp"
	"github.com/fursurecare/otpservice/internal/pkg/ratelimit"
	"github.com/fursurecare/otpservice/internal/pkg/router"
	"github.com/fursurecare/otpservice/internal/pkg/sealer"
	"github.com/fursurecare/otpservice/internal/pkg/storage"
	"github.com/fursurecare/otpservice/internal/pkg/uid"
	"github.com/fursurecare/otpservice/internal/pkg/validator"
	"github.com/fursurecare/otpservice/internal/verification/inbound"
	"github.com/fursurecare/otpservice/migrations"
)

// requiredKeys must be non-blank before anything else starts.
var requiredKeys = []string{
	"database.url",
	"redis.url",
	"hash.hmac.secret",
	"sealer.master_key",
	"jwt.secret",
}

// fatal logs a startup failure and exits. Startup never continues half built.
func fatal(msg string, err error, kv ...any) {
	slog.Error(msg, append([]any{"error", err}, kv...)...)
	os.Exit(1)
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func (a *App) initConfig() {
	cfg, err := config.NewViper(configPath())
	if err != nil {
		fatal("failed to init config", err)
	}
	if err := config.Require(cfg, requiredKeys...); err != nil {
		fatal("failed to init config", err)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // TZ is advisory
		os.Setenv("TZ", tz)
	}

	a.config = cfg
	a.onClose("config", func(context.Context) error { return a.config.Close() })
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}

	a.ins = ins
	a.onClose("instrument", a.ins.Shutdown)
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.fingerprint = hash.NewHMAC(a.config.GetString("hash.hmac.secret"), "email_otp_token")

	v, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validator", err)
	}
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		fatal("failed to init snowflake ids", err, "node_id", a.config.GetInt64("app.node_id"))
	}
	a.uid = snow

	keys, err := sealer.NewHKDFKeyProvider(
		a.config.GetBinary("sealer.master_key"),
		[]byte(a.config.GetString("sealer.salt")),
	)
	if err != nil {
		fatal("failed to init sealer, master_key must be base64 of at least 32 bytes", err)
	}
	a.sealer = sealer.NewAESGCM(keys)

	authenticator, err := otp.NewTOTP(otp.TOTPConfig{
		Issuer:    a.config.GetString("twofactor.totp.issuer"),
		Period:    a.config.GetUint("twofactor.totp.period"),
		Skew:      a.config.GetUint("twofactor.totp.skew"),
		Algorithm: a.config.GetString("twofactor.totp.algorithm"),
	}, a.sealer)
	if err != nil {
		fatal("failed to init totp", err)
	}
	a.totp = authenticator
}

func (a *App) initJWT() {
	j, err := jwt.NewHS512(jwt.Config{
		Secret:      []byte(a.config.GetString("jwt.secret")),
		Issuer:      a.config.GetString("jwt.issuer"),
		Audiences:   a.config.GetArray("jwt.audiences"),
		TTL:         a.config.GetMinute("jwt.ttl_minutes"),
		ElevatedTTL: a.config.GetMinute("jwt.elevated_ttl_minutes"),
		Clock:       a.clock,
		UUID:        a.uuid,
	})
	if err != nil {
		fatal("failed to init jwt", err)
	}
	a.jwt = j
}

// waitReady pings a dependency with a capped fibonacci backoff so the service
// tolerates starting alongside its database and cache.
func (a *App) waitReady(name string, ping func(context.Context) error) error {
	backoff := retry.WithMaxDuration(15*time.Second,
		retry.WithCappedDuration(2*time.Second, retry.NewFibonacci(200*time.Millisecond)))

	return retry.Do(a.ctx, backoff, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			slog.Warn("dependency not ready yet", "dependency", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		fatal("failed to parse database url", err)
	}
	pc.MaxConns = a.config.GetInt32("database.pool.max_conns")
	pc.MinConns = a.config.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		fatal("failed to create database pool", err)
	}
	a.dbConn = pool
	a.onClose("database", func(context.Context) error {
		a.dbConn.Close()
		return nil
	})

	if err := a.waitReady("postgres", pool.Ping); err != nil {
		fatal("failed to reach database", err)
	}

	if a.config.GetBool("database.auto_migrate") {
		if err := migrations.Up(a.ctx, pool); err != nil {
			fatal("failed to run database migrations", err)
		}
	}
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		fatal("failed to parse redis url", err)
	}

	a.cacheConn = redis.NewClient(opt)
	a.onClose("redis", func(context.Context) error { return a.cacheConn.Close() })

	if err := a.waitReady("redis", func(ctx context.Context) error {
		return a.cacheConn.Ping(ctx).Err()
	}); err != nil {
		fatal("failed to reach redis", err)
	}

	a.idemp = idempotency.New(a.cacheConn, a.config.GetString("redis.idempotency_prefix"))
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	m, err := mail.New(driver, mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		fatal("failed to init mail", err, "driver", driver)
	}

	a.mail = m
	a.onClose("mail", func(context.Context) error { return a.mail.Close() })
}

// initStorage is optional. Without storage.driver the audit export route is
// not mounted.
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		slog.Info("storage driver not configured, audit export disabled")
		return
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, a.storageOptions())
	if err != nil {
		fatal("failed to init storage", err, "driver", driver)
	}

	a.storage = stg
	a.onClose("storage", func(context.Context) error { return a.storage.Close() })
}

func (a *App) storageOptions() storage.FactoryOptions {
	str := func(key string) string { return strings.TrimSpace(a.config.GetString("storage." + key)) }

	return storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       str("s3.region"),
			Endpoint:     str("s3.endpoint"),
			AccessKey:    str("s3.access_key"),
			SecretKey:    str("s3.secret_key"),
			SessionToken: str("s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			GoogleAccessID: str("gcs.signer_access_id"),
			PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
		},
		GCSAuth: storage.GCSAuth{
			WithoutAuth:     a.config.GetBool("storage.gcs.without_auth"),
			CredentialsFile: str("gcs.credentials_file"),
			CredentialsJSON: a.config.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        str("gcs.endpoint"),
		},
		MinIO: storage.MinIOOptions{
			Region:       str("minio.region"),
			Endpoint:     str("minio.endpoint"),
			AccessKey:    str("minio.access_key"),
			SecretKey:    str("minio.secret_key"),
			SessionToken: str("minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	}
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, a.messagingOptions())
	if err != nil {
		fatal("failed to init messaging", err, "driver", driver)
	}

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return a.messaging.Close() })
}

func (a *App) messagingOptions() messaging.FactoryOptions {
	key := func(k string) string { return "messaging." + k }

	return messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray(key("kafka.brokers")),
			ClientID:     a.config.GetString(key("kafka.client_id")),
			BatchTimeout: time.Duration(a.config.GetInt64(key("kafka.batch_timeout_ms"))) * time.Millisecond,
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString(key("nats.url")),
			Name: a.config.GetString(key("nats.name")),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt(key("nats.max_reconnects"))),
				nats.Timeout(a.config.GetSecond(key("nats.timeout_seconds"))),
				nats.ReconnectWait(a.config.GetSecond(key("nats.reconnect_wait_seconds"))),
				nats.RetryOnFailedConnect(a.config.GetBool(key("nats.retry_on_failed_connect"))),
			},
		},
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString(key("nsq.producer_addr")),
			ConsumerNSQDAddrs:    a.config.GetArray(key("nsq.consumer_nsqd_addrs")),
			ConsumerLookupdAddrs: a.config.GetArray(key("nsq.consumer_lookupd_addrs")),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString(key("pubsub.project_id")),
			Endpoint:        a.config.GetString(key("pubsub.endpoint")),
			CredentialsFile: a.config.GetString(key("pubsub.credentials_file")),
		},
	}
}

func (a *App) initHTTPServer() {
	a.limiter = ratelimit.New(ratelimit.Config{
		PerSecond: a.config.GetFloat64("app.server.rate_limit.per_second"),
		Burst:     a.config.GetInt("app.server.rate_limit.burst"),
		IdleTTL:   a.config.GetMinute("app.server.rate_limit.idle_minutes"),
	}, a.clock)
	a.goroutine.Go(a.ctx, "rate limiter sweep", func(ctx context.Context) error {
		return a.limiter.Run(ctx, time.Minute)
	})

	a.router = router.NewRouter(router.Config{
		Config:          a.config,
		UUID:            a.uuid,
		JWT:             a.jwt,
		Instrument:      a.ins,
		Limiter:         a.limiter,
		PublicEndpoints: append([]string{healthEndpoint}, inbound.PublicEndpoints...),
	})
	a.router.GET(healthPath, a.health)

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", router.HeaderCorrelationID},
		ExposedHeaders:   []string{router.HeaderCorrelationID, "Retry-After"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}
