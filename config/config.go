package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	GeminiBackendAPI    = "gemini"
	GeminiBackendVertex = "vertex"
)

type Config struct {
	Env              string
	Server           Server
	LogConfig        LogConfig
	OtelConfig       OtelConfig
	LanguageModel    LanguageModel
	GeminiConfig     GeminiConfig
	OpenAiConfig     OpenAiConfig
	OpenRouterConfig OpenRouterConfig
	TokenizerConfig  TokenizerConfig
}

type Server struct {
	Name           string
	Port           string
	BindAddress    string
	StaticDir      string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// Addr is the listen address. BindAddress wins over Port.
func (s Server) Addr() string {
	if s.BindAddress != "" {
		return s.BindAddress
	}
	return fmt.Sprintf(":%v", s.Port)
}

type LogConfig struct {
	Level string
}

// OtelConfig.Endpoint empty disables trace export.
type OtelConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

type LanguageModel struct {
	Provider string
}

type GeminiConfig struct {
	ApiKey   string
	Backend  string
	Project  string
	Location string
	Endpoint string
	Model    string
}

type OpenAiConfig struct {
	ApiKey  string
	BaseURL string
	Model   string
}

type OpenRouterConfig struct {
	ApiKey string
	Model  string
}

type TokenizerConfig struct {
	Path string
}

// legacy deployment variables
var envAliases = map[string]string{
	"GeminiConfig.Endpoint": "API_ENDPOINT",
	"GeminiConfig.Project":  "PROJECT_ID",
	"GeminiConfig.Location": "LOCATION_ID",
	"Server.BindAddress":    "BIND_ADDRESS",
}

func InitConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Println("unable to load .env: " + err.Error())
	}

	v := viper.New()
	setDefaults(v)

	configPath, ok := os.LookupEnv("API_CONFIG_PATH")
	if !ok {
		configPath = "./config"
	}

	configName, ok := os.LookupEnv("API_CONFIG_NAME")
	if !ok {
		configName = "config"
	}

	v.SetConfigName(configName)
	v.AddConfigPath(configPath)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("config file not found. using default/env config: " + err.Error())
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", env)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	c.normalize()

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Env", "local")
	v.SetDefault("Server.Name", "builtin-ai")
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Server.BindAddress", "")
	v.SetDefault("Server.StaticDir", "static")
	v.SetDefault("Server.AllowedOrigins", []string{})
	v.SetDefault("Server.ReadTimeout", 5*time.Second)
	v.SetDefault("Server.WriteTimeout", 2*time.Minute)
	v.SetDefault("Server.IdleTimeout", 30*time.Second)
	v.SetDefault("LogConfig.Level", "info")
	v.SetDefault("OtelConfig.Endpoint", "")
	v.SetDefault("OtelConfig.Insecure", true)
	v.SetDefault("OtelConfig.SampleRatio", 1.0)
	v.SetDefault("LanguageModel.Provider", ProviderGemini)
	v.SetDefault("GeminiConfig.ApiKey", "")
	v.SetDefault("GeminiConfig.Backend", "")
	v.SetDefault("GeminiConfig.Model", "")
	v.SetDefault("OpenAiConfig.ApiKey", "")
	v.SetDefault("OpenAiConfig.BaseURL", "")
	v.SetDefault("OpenAiConfig.Model", "")
	v.SetDefault("OpenRouterConfig.ApiKey", "")
	v.SetDefault("OpenRouterConfig.Model", "")
	v.SetDefault("TokenizerConfig.Path", "tokenizer/tokenizer.model")
}

func (c *Config) normalize() {
	c.LanguageModel.Provider = strings.ToLower(strings.TrimSpace(c.LanguageModel.Provider))
	c.GeminiConfig.Backend = strings.ToLower(strings.TrimSpace(c.GeminiConfig.Backend))
	// a project id without an explicit backend means the Vertex AI deployment
	if c.GeminiConfig.Backend == "" {
		if c.GeminiConfig.Project != "" {
			c.GeminiConfig.Backend = GeminiBackendVertex
		} else {
			c.GeminiConfig.Backend = GeminiBackendAPI
		}
	}
}

func (c *Config) Validate() error {
	switch c.LanguageModel.Provider {
	case ProviderGemini:
		switch c.GeminiConfig.Backend {
		case GeminiBackendAPI:
			if c.GeminiConfig.ApiKey == "" {
				return errors.New("GeminiConfig.ApiKey is required for the gemini backend")
			}
		case GeminiBackendVertex:
			if c.GeminiConfig.Project == "" || c.GeminiConfig.Location == "" {
				return errors.New("GeminiConfig.Project and GeminiConfig.Location are required for the vertex backend")
			}
		default:
			return errors.Errorf("unknown GeminiConfig.Backend %q (allowed: gemini/vertex)", c.GeminiConfig.Backend)
		}
	case ProviderOpenAI:
		if c.OpenAiConfig.ApiKey == "" && c.OpenAiConfig.BaseURL == "" {
			return errors.New("OpenAiConfig.ApiKey is required")
		}
	case ProviderOpenRouter:
		if c.OpenRouterConfig.ApiKey == "" {
			return errors.New("OpenRouterConfig.ApiKey is required")
		}
	default:
		return errors.Errorf("unknown LanguageModel.Provider %q (allowed: gemini/openai/openrouter)", c.LanguageModel.Provider)
	}
	if c.Server.Port == "" && c.Server.BindAddress == "" {
		return errors.New("Server.Port or Server.BindAddress is required")
	}
	return nil
}
