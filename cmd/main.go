package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"stockflow/config"
	"stockflow/internal/domain"
	"stockflow/internal/pkg/broker"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/lock"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/pkg/middleware"

	// Camadas para Injeção de Dependências
	"stockflow/internal/api/product"
	"stockflow/internal/api/report"
	"stockflow/internal/api/router"
	"stockflow/internal/api/stock"
	"stockflow/internal/repository/memrepo"
	"stockflow/internal/repository/movementrepo"
	"stockflow/internal/repository/productrepo"
	"stockflow/internal/repository/stockrepo"
	"stockflow/internal/service/productservice"
	"stockflow/internal/service/reportservice"
	"stockflow/internal/service/stockservice"
)

// @title StockFlow API
// @version 1.0
// @description API de controle de estoque: produtos, movimentações e relatórios.
// @BasePath /v1
func main() {
	stdlog.Println("⚡ Inicializando serviço StockFlow...")
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos apenas com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		stdlog.Fatal(err)
	}
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if s, ok := log.(interface{ Sync() error }); ok {
		defer s.Sync()
	}
	log.Info("Configurações carregadas.", map[string]interface{}{"storage": cfg.StorageDriver, "env": cfg.Environment})

	ctx := context.Background()

	// 2. Cache e Lock (Redis opcional)
	var (
		rdb         *redis.Client
		cacheClient cache.Client = cache.NopClient{}
		locker      lock.Locker  = lock.NewLocal()
	)
	if cfg.RedisAddr != "" {
		var err error
		rdb, err = cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer rdb.Close()
		cacheClient = cache.NewRedisClient(rdb)
		locker = lock.NewRedis(rdb, cfg.LockTTL)
		log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		log.Warn("REDIS_ADDR vazio: cache, lock distribuído e rate limit desligados.", nil)
	}

	// 3. Armazenamento
	var (
		store  domain.Store
		txRun  domain.TxRunner
		closer func()
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		mem := memrepo.NewStore()
		store, txRun, closer = mem, mem, func() {}
		log.Warn("Armazenamento em memória: os dados serão perdidos ao encerrar.", nil)

	default:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolConfig{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
			PingTimeout:  cfg.DBTimeout,
		})
		if err != nil {
			log.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		closer = func() { db.Close() }
		log.Info("Conexão PostgreSQL estabelecida.", nil)

		if cfg.AutoMigrate {
			if err := database.Migrate(ctx, db, log); err != nil {
				log.Fatal("Falha ao aplicar migrations.", err)
			}
			log.Info("Migrations aplicadas.", nil)
		}

		// Repository -> Service -> Handler
		productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log)
		movementRepo := movementrepo.NewMovementRepository(db, cfg.DBTimeout, log)
		store = stockrepo.NewStore(productRepo, movementRepo)
		txRun = stockrepo.NewTxRunner(db, productRepo, movementRepo, log)
	}
	defer closer()

	// 4. Alertas de estoque baixo (RabbitMQ opcional)
	var alerts stockservice.AlertPublisher = broker.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub, err := broker.NewPublisher(cfg.AMQPURL, cfg.LowStockQueue, log)
		if err != nil {
			log.Fatal("Falha ao conectar ao RabbitMQ.", err)
		}
		defer pub.Close()
		alerts = pub
	}

	// 5. Serviços
	opts := stockservice.DefaultOptions()
	opts.MaxRetries = cfg.MovementMaxRetries
	opts.RecentLimit = cfg.RecentDefaultLimit
	opts.RecentMax = cfg.RecentMaxLimit

	productSvc := productservice.NewService(store.Products(), txRun, locker, log)
	stockSvc := stockservice.NewService(store, txRun, locker, alerts, log, opts)
	reportSvc := reportservice.NewService(store.Products(), log)
	log.Debug("Serviços inicializados.", nil)

	// 6. Handlers e Roteador
	handlers := router.Handlers{
		Product: product.NewHandler(productSvc, stockSvc, log),
		Stock:   stock.NewHandler(stockSvc, log),
		Report:  report.NewHandler(reportSvc, log),
	}
	routerOpts := router.Options{AllowedOrigins: cfg.CORSAllowedOrigins}
	if rdb != nil {
		routerOpts.RateLimit = middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod, log)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(handlers, routerOpts, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 7. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor StockFlow ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
