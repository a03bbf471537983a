package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"

	"github.com/joho/godotenv"

	"stockflow/config"
	"stockflow/internal/pkg/database"
	"stockflow/internal/pkg/logger"
)

// Executa comandos do goose sobre as migrations embarcadas no binário.
//
//	go run ./cmd/migrate            # up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down-to 1
func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("⚠️ Aviso: arquivo .env não encontrado. Usando apenas o ambiente do sistema: %v", err)
	}

	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		stdlog.Fatal("❌ Erro de Configuração: DATABASE_URL deve ser definida para rodar migrations")
	}
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)

	flag.Parse()
	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolConfig{PingTimeout: cfg.DBTimeout})
	if err != nil {
		log.Fatal("goose: falha ao conectar ao DB", err)
	}
	defer db.Close()

	if err := database.RunGoose(ctx, db, log, command, args...); err != nil {
		log.Fatal(fmt.Sprintf("goose %s falhou", command), err)
	}

	fmt.Printf("goose %s success\n", command)
}
