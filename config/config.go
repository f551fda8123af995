/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
)

const (
	DEFAULT_PORT             = "5001"
	DEFAULT_MONITORING_PORT  = "5004"
	DEFAULT_WEBHOOK_QUEUE    = "new:webhook"
	DEFAULT_SESSION_TTL_MINS = 720
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL               bool   `json:"ssl" envconfig:"MITRA_SERVER_SSL"`
	Secure            bool   `json:"secure" envconfig:"MITRA_SERVER_SECURE"`
	SecretKey         string `json:"secret_key" envconfig:"MITRA_SERVER_SECRET_KEY"`
	Domain            string `json:"domain" envconfig:"MITRA_SERVER_SSL_DOMAIN"`
	Email             string `json:"ssl_email" envconfig:"MITRA_SERVER_SSL_EMAIL"`
	Port              string `json:"port" envconfig:"MITRA_SERVER_PORT"`
	AllowRegistration bool   `json:"allow_registration" envconfig:"MITRA_SERVER_ALLOW_REGISTRATION"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"MITRA_DATA_SOURCE_DNS"`
	// MaxConnectWait bounds how long startup keeps retrying the first connection.
	MaxConnectWaitSec int `json:"max_connect_wait_sec" envconfig:"MITRA_DATA_SOURCE_MAX_CONNECT_WAIT_SEC"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"MITRA_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"MITRA_REDIS_SKIP_TLS_VERIFY"`
}

type SessionConfig struct {
	TTLMinutes int `json:"ttl_minutes" envconfig:"MITRA_SESSION_TTL_MINUTES"`
}

type QueueConfig struct {
	WebhookQueue      string `json:"webhook_queue" envconfig:"MITRA_QUEUE_WEBHOOK_QUEUE"`
	WorkerConcurrency int    `json:"worker_concurrency" envconfig:"MITRA_QUEUE_WORKER_CONCURRENCY"`
	MaxRetryAttempts  int    `json:"max_retry_attempts" envconfig:"MITRA_QUEUE_MAX_RETRY_ATTEMPTS"`
	MonitoringPort    string `json:"monitoring_port" envconfig:"MITRA_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"MITRA_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"MITRA_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"MITRA_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type TelemetryConfig struct {
	ServiceName string `json:"service_name" envconfig:"MITRA_TELEMETRY_SERVICE_NAME"`
	PosthogKey  string `json:"posthog_key" envconfig:"MITRA_TELEMETRY_POSTHOG_KEY"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"MITRA_SLACK_WEBHOOK_URL"`
}

type WebhookConfig struct {
	Url     string            `json:"url" envconfig:"MITRA_WEBHOOK_URL"`
	Headers map[string]string `json:"headers"`
}

type Notification struct {
	Slack   SlackWebhook  `json:"slack"`
	Webhook WebhookConfig `json:"webhook"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"MITRA_PROJECT_NAME"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"MITRA_ENABLE_TELEMETRY"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Session         SessionConfig    `json:"session"`
	Queue           QueueConfig      `json:"queue"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
	Telemetry       TelemetryConfig  `json:"telemetry"`
}

// SessionTTL returns the configured admin session lifetime.
func (cnf *Configuration) SessionTTL() time.Duration {
	return time.Duration(cnf.Session.TTLMinutes) * time.Minute
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("mitra", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called mitra.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Mitra Admin"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.DataSource.MaxConnectWaitSec <= 0 {
		cnf.DataSource.MaxConnectWaitSec = 30
	}

	if cnf.Session.TTLMinutes <= 0 {
		cnf.Session.TTLMinutes = DEFAULT_SESSION_TTL_MINS
	}

	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = DEFAULT_WEBHOOK_QUEUE
	}
	if cnf.Queue.WorkerConcurrency <= 0 {
		cnf.Queue.WorkerConcurrency = 2
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 5
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = DEFAULT_MONITORING_PORT
	}

	if cnf.Telemetry.ServiceName == "" {
		cnf.Telemetry.ServiceName = "MITRA"
	}

	// Rate limiting is disabled when both RPS and Burst are nil
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		cnf.RateLimit.Burst = ptr.Int(2 * int(*cnf.RateLimit.RequestsPerSecond))
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", *cnf.RateLimit.Burst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		cnf.RateLimit.RequestsPerSecond = ptr.Float64(float64(*cnf.RateLimit.Burst) / 2)
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", *cnf.RateLimit.RequestsPerSecond)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		cnf.RateLimit.CleanupIntervalSec = ptr.Int(10800)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(logger.Writer())
}
