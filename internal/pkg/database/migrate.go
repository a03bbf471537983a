package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"stockflow/internal/pkg/logger"
	"stockflow/migrations"
)

// Migrate aplica as migrations embarcadas até a última versão.
func Migrate(ctx context.Context, db *sqlx.DB, log logger.Logger) error {
	if err := prepareGoose(log); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// RunGoose executa um comando arbitrário do goose (up, down, status, ...).
func RunGoose(ctx context.Context, db *sqlx.DB, log logger.Logger, command string, args ...string) error {
	if err := prepareGoose(log); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db.DB, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func prepareGoose(log logger.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(logger.Goose{Log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return nil
}
