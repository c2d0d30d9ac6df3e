// server/config/config.go
package config

import (
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type MailConfig struct {
	WebhookURL string `mapstructure:"webhookURL"`
	From       string `mapstructure:"from"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Mail   MailConfig   `mapstructure:"mail"`
	Log    LogConfig    `mapstructure:"log"`
}

// LoadConfig reads the yaml config file and overrides values with environment
// variables. A missing config file is not an error; env vars alone are enough.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("mongo.uri", "MONGO_URI")
	viper.BindEnv("mongo.dbName", "MONGO_DBNAME")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	viper.BindEnv("mail.webhookURL", "MAIL_WEBHOOK_URL")
	viper.BindEnv("mail.from", "MAIL_FROM")
	viper.BindEnv("log.level", "LOG_LEVEL")

	viper.SetDefault("server.port", "5001")
	viper.SetDefault("mongo.dbName", "gasbygas")
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("mail.from", "no-reply@gasbygas.com")
	viper.SetDefault("log.level", "info")

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
