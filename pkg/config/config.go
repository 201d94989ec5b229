package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/lk2023060901/delegate-garden-go/pkg/log"
)

// Config 是模块的文件配置。
// 目前只有日志一节，序列化相关组件本身不需要运行时配置。
type Config struct {
	Log log.Config `mapstructure:"log"`
}

// Default 返回默认配置：info 级别、文本格式、输出到标准输出。
func Default() *Config {
	return &Config{
		Log: log.Config{
			Level:  "info",
			Format: "text",
			Stdout: true,
		},
	}
}

// Load 从 YAML 或 JSON 文件加载配置，文件中未出现的字段保持默认值。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	case ".json":
		v.SetConfigType("json")
	default:
		// 让 viper 自行推断类型，或在读取时返回清晰的错误信息。
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLogger 按配置初始化全局日志。
func (c *Config) InitLogger() error {
	logger, props, err := log.InitLogger(&c.Log)
	if err != nil {
		return err
	}
	log.ReplaceGlobals(logger, props)
	return nil
}
