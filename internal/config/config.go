package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是命令行工具的顶层配置结构。
type Config struct {
	Dict      DictConfig      `yaml:"dict"`
	Frontend  FrontendConfig  `yaml:"frontend"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Accent    AccentConfig    `yaml:"accent"`
	TTS       TTSConfig       `yaml:"tts"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// DictConfig 词典目录与下载配置。
type DictConfig struct {
	// Dir 词典目录。为空则使用默认目录并在缺失时自动下载。
	// 环境变量 OPEN_JTALK_DICT_DIR 优先级最高。
	Dir string `yaml:"dir"`
	// URL 词典归档下载地址，为空则使用官方 release。
	URL string `yaml:"url"`
}

// FrontendConfig 文本前端配置。
type FrontendConfig struct {
	// Bin 前端可执行文件，需实现 run-frontend / make-label 约定。
	Bin string `yaml:"bin"`
}

// SynthesisConfig HMM 合成后端配置。
type SynthesisConfig struct {
	Bin      string  `yaml:"bin"`       // hts_engine 可执行文件
	Voice    string  `yaml:"voice"`     // htsvoice 语音模型文件路径
	Speed    float64 `yaml:"speed"`     // 语速倍率
	HalfTone float64 `yaml:"half_tone"` // 附加半音偏移
}

// AccentConfig marine 重音预测服务配置。
type AccentConfig struct {
	Endpoint   string `yaml:"endpoint"`    // 服务地址，为空则禁用
	TimeoutSec int    `yaml:"timeout_sec"` // 请求超时（秒）
}

// TTSConfig 文本级合成引擎配置。
type TTSConfig struct {
	Engine string       `yaml:"engine"` // openjtalk | sherpa | edge
	Sherpa SherpaConfig `yaml:"sherpa"`
	Edge   EdgeConfig   `yaml:"edge"`
}

// SherpaConfig sherpa-onnx 离线神经合成配置。
type SherpaConfig struct {
	ModelDir   string `yaml:"model_dir"`
	NumThreads int    `yaml:"num_threads"`
	SpeakerID  int    `yaml:"speaker_id"`
}

// EdgeConfig Edge TTS 在线合成配置。
type EdgeConfig struct {
	Voice string `yaml:"voice"`
}

// CacheConfig 合成波形缓存配置。
type CacheConfig struct {
	Dir       string `yaml:"dir"`
	MaxSizeMB int64  `yaml:"max_size_mb"` // 0 禁用缓存
}

// LogConfig 日志配置。
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${OPEN_JTALK_DICT_DIR}
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

// Default 返回全部使用默认值的配置（不读取文件）。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Frontend.Bin == "" {
		cfg.Frontend.Bin = "jtalk-frontend"
	}
	if cfg.Synthesis.Bin == "" {
		cfg.Synthesis.Bin = "hts_engine"
	}
	if cfg.Synthesis.Speed == 0 {
		cfg.Synthesis.Speed = 1.0
	}
	if cfg.Accent.TimeoutSec == 0 {
		cfg.Accent.TimeoutSec = 30
	}
	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "openjtalk"
	}
	if cfg.TTS.Sherpa.NumThreads == 0 {
		cfg.TTS.Sherpa.NumThreads = 2
	}
	if cfg.TTS.Edge.Voice == "" {
		cfg.TTS.Edge.Voice = "ja-JP-NanamiNeural"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(dataDir(), "cache")
	} else if strings.HasPrefix(cfg.Cache.Dir, "~/") {
		// Go 不会自动展开 ~，需要手动替换为用户主目录
		if home, _ := os.UserHomeDir(); home != "" {
			cfg.Cache.Dir = home + cfg.Cache.Dir[1:]
		}
	}

	cfg.Accent.Endpoint = strings.TrimSpace(cfg.Accent.Endpoint)
}

// dataDir 返回默认数据目录 ~/.jtalk。
func dataDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return "./.jtalk-data"
	}
	return filepath.Join(home, ".jtalk")
}
