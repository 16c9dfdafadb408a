package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 VoxSkill 的顶层配置结构。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	TTS      TTSConfig      `yaml:"tts"`
	Storage  StorageConfig  `yaml:"storage"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Skill    SkillConfig    `yaml:"skill"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	// Addr 监听地址，如 ":8080"。
	Addr string `yaml:"addr"`
	// Path 技能 webhook 的请求路径。
	Path string `yaml:"path"`
	// TimeoutSeconds 单个请求的处理超时（秒）。
	// 语音平台侧本身有约 8 秒的响应窗口，超时应小于该值。
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// TTSConfig 语音合成配置。
// Voice 是默认音色，请求里未指定音色时使用。
type TTSConfig struct {
	Engine  string        `yaml:"engine"`
	Voice   string        `yaml:"voice"`
	Tencent TencentConfig `yaml:"tencent"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string  `yaml:"secret_id"`
	SecretKey string  `yaml:"secret_key"`
	Region    string  `yaml:"region"`
	Speed     float64 `yaml:"speed"`
}

// OpenAIConfig OpenAI TTS 配置。
type OpenAIConfig struct {
	APIKey string  `yaml:"api_key"`
	Model  string  `yaml:"model"`
	Speed  float64 `yaml:"speed"`
}

// StorageConfig 音频对象存储配置。
// Bucket 和 Region 必须同时设置，远程投递分支才会启用；
// 缺少任意一项时所有音频走内联 data URI。
type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	KeyPrefix string `yaml:"key_prefix"`
	// Strict 为 true 时上传失败直接报错；
	// 默认（false）上传失败回退到内联投递。
	Strict bool `yaml:"strict"`
}

// Enabled 返回远程投递分支是否可用。
func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.Region != ""
}

// DeliveryConfig 音频投递配置。
type DeliveryConfig struct {
	// InlineLimit 内联 data URI 的最大字符数。
	// 超过平台上限的引用会被平台拒绝，默认 100000。
	InlineLimit int `yaml:"inline_limit"`
	// MaxClipSeconds 单段音频的最大时长（秒），默认 240。
	MaxClipSeconds int `yaml:"max_clip_seconds"`
}

// SkillConfig 技能应答文案配置。
type SkillConfig struct {
	Name         string `yaml:"name"`
	MotivateText string `yaml:"motivate_text"`
	HelpText     string `yaml:"help_text"`
	GoodbyeText  string `yaml:"goodbye_text"`
	FallbackText string `yaml:"fallback_text"`
	RepromptText string `yaml:"reprompt_text"`
	ApologyText  string `yaml:"apology_text"`
}

// HistoryConfig 合成历史记录配置。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${VOXSKILL_OPENAI_API_KEY}
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = "/skill"
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 7
	}
	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "edge"
	}
	if cfg.TTS.Voice == "" {
		cfg.TTS.Voice = "en-CA-LiamNeural"
	}
	if cfg.TTS.Tencent.Region == "" {
		cfg.TTS.Tencent.Region = "ap-guangzhou"
	}
	if cfg.TTS.Tencent.Speed == 0 {
		cfg.TTS.Tencent.Speed = 1.0
	}
	if cfg.TTS.OpenAI.Model == "" {
		cfg.TTS.OpenAI.Model = "tts-1"
	}
	if cfg.TTS.OpenAI.Speed == 0 {
		cfg.TTS.OpenAI.Speed = 1.0
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "tts"
	}
	if cfg.Delivery.InlineLimit == 0 {
		cfg.Delivery.InlineLimit = 100000
	}
	if cfg.Delivery.MaxClipSeconds == 0 {
		cfg.Delivery.MaxClipSeconds = 240
	}
	if cfg.Skill.Name == "" {
		cfg.Skill.Name = "Custom TTS Voice"
	}
	if cfg.Skill.MotivateText == "" {
		cfg.Skill.MotivateText = "You're good enough, you're smart enough, and dog gone it, people like you!"
	}
	if cfg.Skill.HelpText == "" {
		cfg.Skill.HelpText = "Ask me to motivate you!"
	}
	if cfg.Skill.GoodbyeText == "" {
		cfg.Skill.GoodbyeText = "Goodbye for now!"
	}
	if cfg.Skill.FallbackText == "" {
		cfg.Skill.FallbackText = "Sorry; I can't help with that. You can ask me to motivate you."
	}
	if cfg.Skill.RepromptText == "" {
		cfg.Skill.RepromptText = "Ask me to say something."
	}
	if cfg.Skill.ApologyText == "" {
		cfg.Skill.ApologyText = "Sorry, there was a problem. Please try again!"
	}
	if cfg.History.DBPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.DBPath = filepath.Join(home, ".voxskill", "voxskill.db")
		} else {
			cfg.History.DBPath = "./voxskill.db"
		}
	} else if strings.HasPrefix(cfg.History.DBPath, "~/") {
		// Go 不会自动展开 ~，需要手动替换为用户主目录
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.DBPath = home + cfg.History.DBPath[1:]
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.TTS.Tencent.SecretID = strings.TrimSpace(cfg.TTS.Tencent.SecretID)
	cfg.TTS.Tencent.SecretKey = strings.TrimSpace(cfg.TTS.Tencent.SecretKey)
	cfg.TTS.OpenAI.APIKey = strings.TrimSpace(cfg.TTS.OpenAI.APIKey)
}
