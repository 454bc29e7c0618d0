package config

// Config holds all application configuration.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Server      ServerConfig      `mapstructure:"server"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Session     SessionConfig     `mapstructure:"session"`
	Agents      AgentsConfig      `mapstructure:"agents"`
	Judges      JudgesConfig      `mapstructure:"judges"`
	GenAI       GenAIConfig       `mapstructure:"genai"`
	Extraction  ExtractionConfig  `mapstructure:"extraction"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ReadTimeout     string   `mapstructure:"read_timeout"`
	WriteTimeout    string   `mapstructure:"write_timeout"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

// CoordinatorConfig configures pipeline execution.
type CoordinatorConfig struct {
	JudgeTimeout  string `mapstructure:"judge_timeout"`
	ReviewTimeout string `mapstructure:"review_timeout"`
	AnswerTimeout string `mapstructure:"answer_timeout"`
	TopN          int    `mapstructure:"top_n"`
	TraceEnabled  bool   `mapstructure:"trace_enabled"`
	TraceDir      string `mapstructure:"trace_dir"`
}

// ScoringConfig configures per-role blend weights.
type ScoringConfig struct {
	Similarity RoleWeightsConfig `mapstructure:"similarity"`
	Relation   RoleWeightsConfig `mapstructure:"relation"`
}

// RoleWeightsConfig holds one role's similarity/relation blend.
type RoleWeightsConfig struct {
	Similarity float64 `mapstructure:"similarity"`
	Relation   float64 `mapstructure:"relation"`
}

// SessionConfig configures round-state persistence.
type SessionConfig struct {
	Backend string `mapstructure:"backend"`
	TTL     string `mapstructure:"ttl"`
	Path    string `mapstructure:"path"`
}

// AgentsConfig configures remote scoring agents. Empty URLs mean the agent
// runs in-process.
type AgentsConfig struct {
	Similarity RemoteAgentConfig `mapstructure:"similarity"`
	Relation   RemoteAgentConfig `mapstructure:"relation"`
}

// RemoteAgentConfig configures one remote scoring agent endpoint.
type RemoteAgentConfig struct {
	URL     string `mapstructure:"url"`
	Timeout string `mapstructure:"timeout"`
}

// JudgesConfig configures the judging and review stages.
type JudgesConfig struct {
	EntailmentURL       string  `mapstructure:"entailment_url"`
	EntailmentThreshold float64 `mapstructure:"entailment_threshold"`
	DebaterDelta        float64 `mapstructure:"debater_delta"`
	GoalRulesPath       string  `mapstructure:"goal_rules_path"`
}

// GenAIConfig configures the generative collaborator.
type GenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// ExtractionConfig configures the concept-extraction collaborator.
type ExtractionConfig struct {
	URL     string `mapstructure:"url"`
	Timeout string `mapstructure:"timeout"`
}
