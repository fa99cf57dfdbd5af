package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type LockConfig struct {
	Policy      string        `mapstructure:"policy"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type RelayConfig struct {
	LanguageScope string `mapstructure:"language_scope"`
	RunScope      string `mapstructure:"run_scope"`
}

type RateConfig struct {
	Messages      int           `mapstructure:"messages"`
	Interval      time.Duration `mapstructure:"interval"`
	HTTPPerMinute int           `mapstructure:"http_per_minute"`
}

type ExecutorConfig struct {
	URL           string            `mapstructure:"url"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	MaxConcurrent int64             `mapstructure:"max_concurrent"`
	Versions      map[string]string `mapstructure:"versions"`
}

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	FrontendURL string        `mapstructure:"frontend_url"`
	StaticPath  string        `mapstructure:"static_path"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	PongWait    time.Duration `mapstructure:"pong_wait"`
	WriteWait   time.Duration `mapstructure:"write_wait"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	Secret      string        `mapstructure:"secret"`
	LogLevel    string        `mapstructure:"log_level"`

	Lock     LockConfig     `mapstructure:"lock"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Rate     RateConfig     `mapstructure:"rate"`
	Executor ExecutorConfig `mapstructure:"executor"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 5000)
	v.SetDefault("frontend_url", "")
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "25s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("secret", "coderoom-dev-secret")
	v.SetDefault("log_level", "info")

	v.SetDefault("lock.policy", "explicit")
	v.SetDefault("lock.idle_timeout", "2s")
	v.SetDefault("relay.language_scope", "others")
	v.SetDefault("relay.run_scope", "room")
	v.SetDefault("rate.messages", 200)
	v.SetDefault("rate.interval", "1s")
	v.SetDefault("rate.http_per_minute", 120)

	v.SetDefault("executor.url", "https://emkc.org/api/v2/piston/execute")
	v.SetDefault("executor.timeout", "20s")
	v.SetDefault("executor.max_concurrent", 4)
	v.SetDefault("executor.versions", map[string]string{})
}

// Load reads configuration in increasing precedence: defaults, the YAML
// file for CONFIG_ENV, environment (a .env file is loaded first), flags.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	f := flag.NewFlagSet("coderoom", flag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.Int("port", 0, "listen port")
	f.String("frontend-url", "", "allowed browser origin")
	f.String("lock-policy", "", "edit lock policy: explicit, keystroke or none")
	if err := f.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	fileName, _ := f.GetString("config")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	v.SetEnvPrefix("CODEROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by existing deployments.
	_ = v.BindEnv("port", "CODEROOM_PORT", "PORT")
	_ = v.BindEnv("frontend_url", "CODEROOM_FRONTEND_URL", "FRONTEND_URL")

	_ = v.BindPFlag("port", f.Lookup("port"))
	_ = v.BindPFlag("frontend_url", f.Lookup("frontend-url"))
	_ = v.BindPFlag("lock.policy", f.Lookup("lock-policy"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("lock_policy", cfg.Lock.Policy).Msg("config ready")
	return &cfg, nil
}
