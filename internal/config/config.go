package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Broker    BrokerConfig    `mapstructure:"broker"`
	Client    ClientConfig    `mapstructure:"client"`
	Call      CallConfig      `mapstructure:"call"`
	Reconnect ReconnectConfig `mapstructure:"reconnect"`
	Media     MediaConfig     `mapstructure:"media"`
	Diag      DiagConfig      `mapstructure:"diag"`
	ICE       ICEConfig       `mapstructure:"ice"`
	Log       LogConfig       `mapstructure:"log"`
}

type BrokerConfig struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	StaticPath   string        `mapstructure:"static_path"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	Secret       string        `mapstructure:"secret"`
	InviteLimit  int           `mapstructure:"invite_limit"`
	InviteWindow time.Duration `mapstructure:"invite_window"`
	MaxStrikes   int           `mapstructure:"max_strikes"`
}

type ClientConfig struct {
	BrokerURL   string        `mapstructure:"broker_url"`
	Identity    string        `mapstructure:"identity"`
	Context     string        `mapstructure:"context"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type CallConfig struct {
	OutgoingTimeout  time.Duration `mapstructure:"outgoing_timeout"`
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	AutoAnswer       bool          `mapstructure:"auto_answer"`
	RecordDir        string        `mapstructure:"record_dir"`
}

type ReconnectConfig struct {
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type MediaConfig struct {
	Audio        bool    `mapstructure:"audio"`
	Video        bool    `mapstructure:"video"`
	Width        int     `mapstructure:"width"`
	Height       int     `mapstructure:"height"`
	FrameRate    float64 `mapstructure:"frame_rate"`
	VideoBitrate int     `mapstructure:"video_bitrate"`
}

type DiagConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	BitsPerPixel float64       `mapstructure:"bits_per_pixel"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type ICEConfig struct {
	Servers []ICEServer `mapstructure:"servers"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads config/config.<CONFIG_ENV>.yaml into v, which may already
// carry bound command line flags, and decodes the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("PEERCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Debug().Str("module", "config").Str("mode", cfg.Broker.Mode).Int("port", cfg.Broker.Port).
		Str("broker_url", cfg.Client.BrokerURL).Msg("config")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.mode", "release")
	v.SetDefault("broker.port", 8080)
	v.SetDefault("broker.static_path", "./web")
	v.SetDefault("broker.read_limit", 65536)
	v.SetDefault("broker.ping_period", "54s")
	v.SetDefault("broker.secret", "peercall")
	v.SetDefault("broker.invite_limit", 10)
	v.SetDefault("broker.invite_window", "1m")
	v.SetDefault("broker.max_strikes", 3)

	v.SetDefault("client.broker_url", "ws://localhost:8080/api/ws/signal")
	v.SetDefault("client.context", "lobby")
	v.SetDefault("client.dial_timeout", "10s")

	v.SetDefault("call.outgoing_timeout", "60s")
	v.SetDefault("call.discovery_timeout", "5s")
	v.SetDefault("call.probe_timeout", "2s")
	v.SetDefault("call.auto_answer", false)
	v.SetDefault("call.record_dir", "./recordings")

	v.SetDefault("reconnect.base_delay", "1s")
	v.SetDefault("reconnect.max_delay", "10s")
	v.SetDefault("reconnect.max_attempts", 3)

	v.SetDefault("media.audio", true)
	v.SetDefault("media.video", true)
	v.SetDefault("media.width", 640)
	v.SetDefault("media.height", 480)
	v.SetDefault("media.frame_rate", 30)
	v.SetDefault("media.video_bitrate", 1_500_000)

	v.SetDefault("diag.interval", "1s")
	v.SetDefault("diag.bits_per_pixel", 0.1)

	v.SetDefault("ice.servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
}
