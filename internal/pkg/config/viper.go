package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. OTPSERVICE_SEALER_MASTER_KEY
// overrides sealer.master_key.
const EnvPrefix = "OTPSERVICE"

// Viper implements Config. The plain getters come from the embedded
// *viper.Viper; the unit and encoding helpers are defined here.
type Viper struct {
	*viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper reads the file at path, typed by its extension, and reloads it
// whenever it changes on disk.
func NewViper(path string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{Viper: v}, nil
}

// NewViperFromBytes reads configuration of configType ("yaml", "json", ...)
// from data. Used by tests and tooling.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: type is required")
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{Viper: v}, nil
}

func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.GetInt64(key)) * time.Second
}

func (vc *Viper) GetMinute(key string) time.Duration {
	return time.Duration(vc.GetInt64(key)) * time.Minute
}

// GetBinary accepts standard or URL-safe base64, padded or not.
func (vc *Viper) GetBinary(key string) []byte {
	raw := strings.TrimRight(strings.TrimSpace(vc.GetString(key)), "=")
	if raw == "" {
		return nil
	}

	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(raw); err == nil {
			return data
		}
	}
	return nil
}

func (vc *Viper) GetArray(key string) []string {
	return lo.Compact(lo.Map(strings.Split(vc.GetString(key), ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// Close is a no-op; the file watcher lives for the whole process.
func (vc *Viper) Close() error {
	return nil
}
