package models

// MConfig Structure
type MConfig struct {
	Name      string            `yaml:"name"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	LogLevel  string            `yaml:"log_level"`
	GrpcHost  string            `yaml:"grpc_host"`
	GrpcPort  int               `yaml:"grpc_port"`
	Storage   MStorageConfig    `yaml:"storage"`
	Network   MNetworkConfig    `yaml:"network"`
	Endpoint  MEndpointConfig   `yaml:"endpoint"`
	Dashboard MDashboardConfig  `yaml:"dashboard"`
	Strings   map[string]string `yaml:"strings"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
}

// MEndpointConfig describes the aggregation endpoint and its action discriminators.
type MEndpointConfig struct {
	URL               string `yaml:"url"`
	Nonce             string `yaml:"nonce"`
	AggregateAction   string `yaml:"aggregate_action"`
	OrderStatusAction string `yaml:"order_status_action"`
	AgentStatusAction string `yaml:"agent_status_action"`
}

type MDashboardConfig struct {
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	ErrorDisplaySeconds int      `yaml:"error_display_seconds"`
	StrictOrdering      bool     `yaml:"strict_ordering"`
	CurrencySymbol      string   `yaml:"currency_symbol"`
	OrderURL            string   `yaml:"order_url"`     // e.g. "/wp-admin/post.php?post=%d&action=edit"
	OrderActions        []string `yaml:"order_actions"` // statuses offered as row controls
}
