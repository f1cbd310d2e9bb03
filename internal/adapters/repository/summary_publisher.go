package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

// SummaryPublisher implements ports.SummaryPublisher on RabbitMQ.
// The share/export collaborator consumes these events and owns the delivery
// mechanism (share sheet, clipboard, whatever); we only hand over the values.
// Includes retry logic and a circuit breaker for resilience.
type SummaryPublisher struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	queueName     string
	cb            *gobreaker.CircuitBreaker
	maxRetries    int
	retryDelay    time.Duration
	connMutex     sync.RWMutex
	reconnectCh   chan bool
	stopReconnect chan bool
}

// SummaryEvent is the message published for each completed estimate
type SummaryEvent struct {
	Summary   domain.SummaryValues `json:"summary"`
	Text      string               `json:"text"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewSummaryPublisher creates a RabbitMQ publisher with a circuit breaker
func NewSummaryPublisher(rabbitMQURL string, queueName string) (*SummaryPublisher, error) {
	if queueName == "" {
		queueName = "estimate_summaries"
	}

	publisher := &SummaryPublisher{
		queueName:     queueName,
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}

	settings := gobreaker.Settings{
		Name:        "rabbitmq",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}
	publisher.cb = gobreaker.NewCircuitBreaker(settings)

	if err := publisher.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go publisher.handleReconnection(rabbitMQURL)

	return publisher, nil
}

// connect establishes connection to RabbitMQ
func (p *SummaryPublisher) connect(rabbitMQURL string) error {
	var err error
	for i := 0; i < p.maxRetries; i++ {
		p.conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v", i+1, p.maxRetries, err)
		if i < p.maxRetries-1 {
			time.Sleep(p.retryDelay)
		}
	}

	if err != nil {
		return err
	}

	p.channel, err = p.conn.Channel()
	if err != nil {
		p.conn.Close()
		return err
	}

	// Declare queue (idempotent)
	_, err = p.channel.QueueDeclare(
		p.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		p.channel.Close()
		p.conn.Close()
		return err
	}

	log.Println("Summary publisher connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (p *SummaryPublisher) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-p.reconnectCh:
			log.Println("Attempting to reconnect to RabbitMQ...")
			p.connMutex.Lock()
			if p.channel != nil {
				p.channel.Close()
			}
			if p.conn != nil {
				p.conn.Close()
			}
			p.connMutex.Unlock()

			if err := p.connect(rabbitMQURL); err != nil {
				log.Printf("Reconnection failed: %v", err)
			}
		case <-p.stopReconnect:
			return
		}
	}
}

// PublishSummary publishes a summary event through the circuit breaker
func (p *SummaryPublisher) PublishSummary(ctx context.Context, summary domain.SummaryValues) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.publishWithRetry(ctx, summary)
	})
	return err
}

// publishWithRetry publishes with retry logic
func (p *SummaryPublisher) publishWithRetry(ctx context.Context, summary domain.SummaryValues) error {
	event := SummaryEvent{
		Summary:   summary,
		Text:      summary.Text(),
		Timestamp: time.Now(),
	}

	logEntry := map[string]interface{}{
		"event":           "summary_publish_attempt",
		"estimate_id":     summary.EstimateID.String(),
		"strategy_used":   string(summary.StrategyUsed),
		"remaining_years": summary.RemainingYears,
		"timestamp":       time.Now().Format(time.RFC3339),
	}
	jsonBytes, _ := json.Marshal(logEntry)
	log.Printf("%s", string(jsonBytes))

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal summary event: %w", err)
	}

	var lastErr error
	for i := 0; i < p.maxRetries; i++ {
		p.connMutex.RLock()
		ch := p.channel
		conn := p.conn
		p.connMutex.RUnlock()

		if ch == nil || conn == nil || conn.IsClosed() {
			select {
			case p.reconnectCh <- true:
			default:
			}
			time.Sleep(p.retryDelay)
			continue
		}

		err = ch.PublishWithContext(
			ctx,
			"",          // exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp091.Persistent,
				Timestamp:    time.Now(),
			},
		)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Printf("Failed to publish summary (attempt %d/%d): %v", i+1, p.maxRetries, err)

		if i < p.maxRetries-1 {
			select {
			case p.reconnectCh <- true:
			default:
			}
			time.Sleep(p.retryDelay)
		}
	}

	return fmt.Errorf("failed to publish summary after %d retries: %w", p.maxRetries, lastErr)
}

// Close closes the RabbitMQ connection
func (p *SummaryPublisher) Close() error {
	close(p.stopReconnect)
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NoopSummaryPublisher is wired when no broker is configured: the service is
// recreational and must run standalone; summaries are then only exposed via
// the HTTP summary endpoint.
type NoopSummaryPublisher struct{}

// PublishSummary discards the summary
func (NoopSummaryPublisher) PublishSummary(ctx context.Context, summary domain.SummaryValues) error {
	return nil
}

// Ensure both publishers implement the interface
var (
	_ ports.SummaryPublisher = (*SummaryPublisher)(nil)
	_ ports.SummaryPublisher = NoopSummaryPublisher{}
)
