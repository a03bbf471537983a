// Package broker publica eventos de estoque no RabbitMQ.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/logger"
)

// channel é o subconjunto de *amqp.Channel usado pelo publisher.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher envia alertas de estoque baixo para uma fila durável.
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     channel
	queue  string
	logger logger.Logger
}

// NewPublisher conecta ao RabbitMQ e declara a fila de alertas.
func NewPublisher(url, queue string, log logger.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("falha ao abrir canal: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("falha ao declarar fila %s: %w", queue, err)
	}

	log.Info("RabbitMQ conectado.", map[string]interface{}{"queue": queue})
	return &Publisher{conn: conn, ch: ch, queue: queue, logger: log}, nil
}

// PublishLowStock serializa o alerta em JSON e publica na fila.
func (p *Publisher) PublishLowStock(ctx context.Context, alert domain.LowStockAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("falha ao serializar alerta: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(
		"",      // exchange padrão
		p.queue, // routing key: nome da fila
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("falha ao publicar alerta: %w", err)
	}

	p.logger.Debug("Alerta de estoque baixo enviado.", map[string]interface{}{"product_id": alert.ProductID, "queue": p.queue})
	return nil
}

// Close fecha canal e conexão.
func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("falha ao fechar canal: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("falha ao fechar conexão: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("erros ao fechar RabbitMQ: %v", errs)
	}
	return nil
}

// NopPublisher descarta os alertas (AMQP_URL vazio).
type NopPublisher struct{}

func (NopPublisher) PublishLowStock(context.Context, domain.LowStockAlert) error { return nil }
