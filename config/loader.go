package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yusufsyaifudin/versi/pkg/validator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and validates it.
func Load(configFile string) (cfg Config, err error) {
	fileContent, err := os.ReadFile(configFile)
	if err != nil {
		err = fmt.Errorf("error read file config %s: %w", configFile, err)
		return
	}

	dec := yaml.NewDecoder(bytes.NewReader(fileContent))
	dec.KnownFields(false)
	err = dec.Decode(&cfg)
	if err != nil {
		err = fmt.Errorf("error decode config %s: %w", configFile, err)
		return
	}

	err = validator.Validate(cfg)
	if err != nil {
		err = fmt.Errorf("invalid config %s: %w", configFile, err)
		return
	}

	if _, ok := cfg.DatabaseResources[cfg.Migration.DBLabel]; !ok {
		err = fmt.Errorf("invalid config %s: unknown database label '%s'", configFile, cfg.Migration.DBLabel)
		return
	}

	return
}

// NewLogger builds the JSON zap logger used by every command.
func NewLogger() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), // pipe to multiple writer
		zapcore.DebugLevel,
	)

	return zap.New(core)
}
