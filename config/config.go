package config

import (
	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dawita19/earnmax-sub001/conv"
	"github.com/dawita19/earnmax-sub001/monitor"
)

// Config structure
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	DatabaseCluster DatabaseClusterConfig `mapstructure:"database_cluster"`
	Crons           Crons                 `mapstructure:"crons"`
	Referral        ReferralConfig        `mapstructure:"referral_config"`
	VipLevels       []*VipLevelConfig     `mapstructure:"vip_levels"`
	Audit           AuditConfig           `mapstructure:"audit"`

	vipLevelsMap map[int]*VipLevelConfig
}

// ServerConfig structure
type ServerConfig struct {
	Monitoring monitor.Config `mapstructure:"monitoring"`
	API        APIConfig      `mapstructure:"api"`
}

// APIConfig structure
type APIConfig struct {
	Port      int    `mapstructure:"port"`
	KeepAlive bool   `mapstructure:"keep_alive"`
	Domain    string `mapstructure:"domain"`
}

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	Writer DatabaseConfig `mapstructure:"writer"`
	Reader DatabaseConfig `mapstructure:"reader"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLmode         string `mapstructure:"sslmode"`
	ApplicationName string `mapstructure:"application_name"`
	Port            int    `mapstructure:"port"`
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// ReferralConfig per-level bonus rates applied to purchase/upgrade/task amounts
type ReferralConfig struct {
	L1 float64 `mapstructure:"L1"`
	L2 float64 `mapstructure:"L2"`
	L3 float64 `mapstructure:"L3"`
	L4 float64 `mapstructure:"L4"`
}

// Rates returns the configured per-level rates in level order
func (cfg ReferralConfig) Rates() [4]float64 {
	return [4]float64{cfg.L1, cfg.L2, cfg.L3, cfg.L4}
}

// VipLevelConfig one purchasable membership tier
type VipLevelConfig struct {
	Level           int     `mapstructure:"level" json:"level"`
	Investment      float64 `mapstructure:"investment" json:"investment"`
	TaskEarning     float64 `mapstructure:"task_earning" json:"task_earning"`
	WithdrawalLimit float64 `mapstructure:"withdrawal_limit" json:"withdrawal_limit"`
}

func (lvl *VipLevelConfig) GetInvestment() *decimal.Big {
	return conv.NewMoneyFromFloat(lvl.Investment)
}

func (lvl *VipLevelConfig) GetWithdrawalLimit() *decimal.Big {
	return conv.NewMoneyFromFloat(lvl.WithdrawalLimit)
}

// GetVipLevelsMap index the configured tiers by level
func (cfg *Config) GetVipLevelsMap() map[int]*VipLevelConfig {
	if cfg.vipLevelsMap == nil {
		list := map[int]*VipLevelConfig{}
		for _, lvl := range cfg.VipLevels {
			list[lvl.Level] = lvl
		}
		cfg.vipLevelsMap = list
	}
	return cfg.vipLevelsMap
}

// AuditConfig fire-and-forget audit event stream
type AuditConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LoadConfig Load server configuration from the yaml file
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")            // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")        // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/earnmax/") // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()
	setDefaultVariables()

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}

func setDefaultVariables() {
	viper.SetDefault("referral_config.L1", 0.20)
	viper.SetDefault("referral_config.L2", 0.10)
	viper.SetDefault("referral_config.L3", 0.05)
	viper.SetDefault("referral_config.L4", 0.02)
	viper.SetDefault("crons.redispatch_pending", "@every 30s")
	viper.SetDefault("crons.generate_daily_tasks", "@daily")
}
