package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/rabbitmq/amqp091-go"
)

// SubmissionConsumer consumes estimation submissions from RabbitMQ so other
// services (e.g. a form backend) can request estimates asynchronously.
// Runs in the background as a goroutine within the lifeclock-service pod.
// (For multi-replica deployments, RabbitMQ distributes messages across
// replicas using round-robin.)
type SubmissionConsumer struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	queueName      string
	service        ports.EstimationService
	connMutex      sync.RWMutex
	reconnectCh    chan bool
	stopReconnect  chan bool
	maxRetries     int
	retryDelay     time.Duration
	consumingCtx   context.Context
	consumingMutex sync.Mutex
	isConsuming    bool
}

// NewSubmissionConsumer creates a RabbitMQ consumer for estimation submissions
func NewSubmissionConsumer(rabbitMQURL string, queueName string, service ports.EstimationService) (*SubmissionConsumer, error) {
	if queueName == "" {
		queueName = "estimate.submissions"
	}

	consumer := &SubmissionConsumer{
		queueName:     queueName,
		service:       service,
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}

	if err := consumer.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go consumer.handleReconnection(rabbitMQURL)

	return consumer, nil
}

// connect establishes connection to RabbitMQ
func (c *SubmissionConsumer) connect(rabbitMQURL string) error {
	var err error
	for i := 0; i < c.maxRetries; i++ {
		c.conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay)
		}
	}

	if err != nil {
		return err
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return err
	}

	// Declare queue (idempotent)
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	log.Println("Submission consumer connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *SubmissionConsumer) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-c.reconnectCh:
			log.Println("Attempting to reconnect to RabbitMQ...")
			c.connMutex.Lock()
			if c.conn != nil && !c.conn.IsClosed() {
				c.conn.Close()
			}
			if c.channel != nil && !c.channel.IsClosed() {
				c.channel.Close()
			}
			c.connMutex.Unlock()

			if err := c.connect(rabbitMQURL); err != nil {
				log.Printf("Reconnection failed: %v", err)
				time.Sleep(5 * time.Second)
				c.reconnectCh <- true
			} else {
				c.consumingMutex.Lock()
				if c.consumingCtx != nil && c.consumingCtx.Err() == nil {
					if !c.isConsuming {
						go c.StartConsuming(c.consumingCtx)
					}
				}
				c.consumingMutex.Unlock()
			}
		case <-c.stopReconnect:
			return
		}
	}
}

// StartConsuming starts consuming submissions in a background goroutine.
// Duplicate prevention: ensures only one consumer per pod instance.
func (c *SubmissionConsumer) StartConsuming(ctx context.Context) error {
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		log.Println("Submission consumer is already running in this pod, skipping duplicate start")
		return nil
	}
	c.isConsuming = true
	c.consumingCtx = ctx
	c.consumingMutex.Unlock()

	c.connMutex.RLock()
	channel := c.channel
	conn := c.conn
	c.connMutex.RUnlock()

	if channel == nil || channel.IsClosed() || conn == nil || conn.IsClosed() {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	// Process one submission at a time
	err := channel.Qos(1, 0, false)
	if err != nil {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	consumerTag := fmt.Sprintf("submission-consumer-%d", time.Now().UnixNano())
	msgs, err := channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer tag (unique identifier)
		false,       // auto-ack (manual ack - acknowledge only after a successful estimate)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Submission consumer started (tag: %s), waiting for messages on queue: %s", consumerTag, c.queueName)

	go func() {
		defer func() {
			c.consumingMutex.Lock()
			c.isConsuming = false
			c.consumingMutex.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				log.Println("Submission consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Submission consumer channel closed, attempting reconnection...")
					c.reconnectCh <- true
					return
				}
				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage runs the pipeline for a single queued submission.
// The message is acknowledged only after a successful estimate; validation
// failures are rejected without requeue since retrying cannot fix them.
func (c *SubmissionConsumer) processMessage(ctx context.Context, msg amqp091.Delivery) {
	var req ports.SubmitEstimateRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		log.Printf("Failed to unmarshal submission: %v", err)
		msg.Nack(false, false)
		return
	}

	result, _, err := c.service.Submit(ctx, req)
	if err != nil {
		log.Printf("Failed to process queued submission: %v", err)
		// Bad input is permanent; don't requeue
		msg.Nack(false, false)
		return
	}

	log.Printf("Processed queued submission: estimate_id=%s, strategy=%s, expected_years=%.2f",
		result.ID, result.StrategyUsed, result.ExpectedYears)
	msg.Ack(false)
}

// Close closes the RabbitMQ connection
func (c *SubmissionConsumer) Close() error {
	close(c.stopReconnect)
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
