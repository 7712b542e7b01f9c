package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"rdm-dashboard/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

const (
	DefaultPollIntervalSeconds = 30
	DefaultErrorDisplaySeconds = 5
	DefaultRequestTimeout      = 30
	DefaultAggregateAction     = "rdm_get_dashboard_data"
	DefaultOrderStatusAction   = "rdm_update_order_status"
	DefaultAgentStatusAction   = "rdm_update_agent_status"
)

// DefaultStrings is the display bundle used for any key the config omits.
var DefaultStrings = map[string]string{
	"no_data":                 "No data available",
	"loading":                 "Loading...",
	"error":                   "An error occurred. Please try again.",
	"confirm_order_status":    "Are you sure you want to change the order status?",
	"confirm_agent_status":    "Are you sure you want to change the agent status?",
	"order_id":                "Order",
	"customer":                "Customer",
	"amount":                  "Amount",
	"status":                  "Status",
	"agent":                   "Agent",
	"actions":                 "Actions",
	"view":                    "View",
	"details":                 "Details",
	"active_deliveries":       "Active deliveries",
	"agent_online":            "Online",
	"agent_busy":              "Busy",
	"agent_offline":           "Offline",
	"status_unknown":          "Unknown",
	"status_pending":          "Pending",
	"status_processing":       "Processing",
	"status_on-hold":          "On Hold",
	"status_preparing":        "Preparing",
	"status_ready":            "Ready",
	"status_out-for-delivery": "Out for Delivery",
	"status_delivered":        "Delivered",
	"status_completed":        "Completed",
	"status_cancelled":        "Cancelled",
	"status_refunded":         "Refunded",
	"status_failed":           "Failed",
	"refresh":                 "Refresh",
	"dismiss":                 "Dismiss",
}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}
	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from YAML bytes, applying defaults before validation
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills every optional field left empty
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 30
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = DefaultRequestTimeout
	}
	if c.Endpoint.AggregateAction == "" {
		c.Endpoint.AggregateAction = DefaultAggregateAction
	}
	if c.Endpoint.OrderStatusAction == "" {
		c.Endpoint.OrderStatusAction = DefaultOrderStatusAction
	}
	if c.Endpoint.AgentStatusAction == "" {
		c.Endpoint.AgentStatusAction = DefaultAgentStatusAction
	}
	if c.Dashboard.PollIntervalSeconds == 0 {
		c.Dashboard.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if c.Dashboard.ErrorDisplaySeconds == 0 {
		c.Dashboard.ErrorDisplaySeconds = DefaultErrorDisplaySeconds
	}
	if c.Dashboard.CurrencySymbol == "" {
		c.Dashboard.CurrencySymbol = "$"
	}
	if len(c.Dashboard.OrderActions) == 0 {
		c.Dashboard.OrderActions = []string{"preparing", "ready", "out-for-delivery", "delivered"}
	}

	if c.Strings == nil {
		c.Strings = make(map[string]string, len(DefaultStrings))
	}
	for k, v := range DefaultStrings {
		if _, ok := c.Strings[k]; !ok {
			c.Strings[k] = v
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	if c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint url cannot be empty")
	}
	if u, err := url.Parse(c.Endpoint.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint url '%s' is not an absolute URL", c.Endpoint.URL)
	}

	if c.Dashboard.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if c.Dashboard.ErrorDisplaySeconds <= 0 {
		return fmt.Errorf("error display duration must be greater than 0")
	}
	if c.Dashboard.OrderURL != "" && strings.Count(c.Dashboard.OrderURL, "%d") != 1 {
		return fmt.Errorf("order url must contain exactly one %%d placeholder")
	}
	for i, st := range c.Dashboard.OrderActions {
		if _, ok := models.ParseOrderStatus(st); !ok {
			return fmt.Errorf("order action %d: unknown order status '%s'", i, st)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Dashboard.PollIntervalSeconds) * time.Second
}

func (c *Config) ErrorDisplay() time.Duration {
	return time.Duration(c.Dashboard.ErrorDisplaySeconds) * time.Second
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
