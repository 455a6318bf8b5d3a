package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type MimicSqlConfig struct {
	AppName string `mapstructure:"app_name"`

	Session struct {
		StrictSQLMode                  bool `mapstructure:"strict_sql_mode"`
		PreventReplicaReadsAfterWrites bool `mapstructure:"prevent_replica_reads_after_writes"`
		RelaxUniqueConstraints         bool `mapstructure:"relax_unique_constraints"`
	} `mapstructure:"session"`

	Server struct {
		Port  int  `mapstructure:"port"`
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"server"`
}

func LoadConfig(path string) (*MimicSqlConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("session.strict_sql_mode", true)
	v.SetDefault("session.prevent_replica_reads_after_writes", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg MimicSqlConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
