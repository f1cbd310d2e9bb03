package config

import (
	"crypto/rsa"
	"log"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds all configuration for the Lifeclock Service
type Config struct {
	// JWT configuration - optional public key from an identity service.
	// nil means the API runs in anonymous mode.
	JWTPublicKey *rsa.PublicKey

	// Optional baseline database; empty means the embedded reference
	// table is used as-is
	DatabaseURL string

	// RabbitMQ configuration; empty disables the summary publisher and
	// the submission consumer
	RabbitMQURL string

	// Queue names
	SummaryQueueName    string
	SubmissionQueueName string

	// External ML model server; empty makes the ml strategy always fall
	// back to who
	PredictorURL string

	// Server configuration
	Port string
}

// Load reads configuration from environment variables.
// Every dependency is optional: a bare `PORT=8080 ./lifeclock` runs the
// whole pipeline from the embedded reference table.
func Load() *Config {
	var publicKey *rsa.PublicKey
	if publicKeyPath := os.Getenv("PUBLIC_KEY_PATH"); publicKeyPath != "" {
		key, err := loadPublicKey(publicKeyPath)
		if err != nil {
			panic("Failed to load public key: " + err.Error())
		}
		publicKey = key
	} else {
		log.Println("PUBLIC_KEY_PATH not set, API runs in anonymous mode")
	}

	summaryQueue := os.Getenv("SUMMARY_QUEUE_NAME")
	if summaryQueue == "" {
		summaryQueue = "estimate_summaries"
	}

	submissionQueue := os.Getenv("SUBMISSION_QUEUE_NAME")
	if submissionQueue == "" {
		submissionQueue = "estimate.submissions"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		JWTPublicKey:        publicKey,
		DatabaseURL:         os.Getenv("DB_CONNECTION_STRING"),
		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		SummaryQueueName:    summaryQueue,
		SubmissionQueueName: submissionQueue,
		PredictorURL:        os.Getenv("PREDICTOR_URL"),
		Port:                port,
	}
}

// loadPublicKey loads an RSA public key from a PEM file
func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(keyData)
	if err != nil {
		return nil, err
	}
	return publicKey, nil
}
