package config

import "github.com/spf13/viper"

type Config struct {
	Port         string `mapstructure:"PORT"`
	NatsURL      string `mapstructure:"NATS_URL"`
	DataFile     string `mapstructure:"DATA_FILE"`
	BrokerKind   string `mapstructure:"BROKER_KIND"` // "paper" unless a live adapter is wired
	// Credentials reference used to restore the session when a run resumes
	// after a restart.
	BrokerEmail    string `mapstructure:"BROKER_EMAIL"`
	BrokerPassword string `mapstructure:"BROKER_PASSWORD"`
	ModelURL     string `mapstructure:"MODEL_URL"`     // remote inference service, optional
	ModelWeights string `mapstructure:"MODEL_WEIGHTS"` // local weights file, used when MODEL_URL is empty
	Asset        string `mapstructure:"ASSET"`
	CandleCount  int    `mapstructure:"CANDLE_COUNT"`
	CandleSecs   int    `mapstructure:"CANDLE_SECS"`
}

func LoadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("app")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8000")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("DATA_FILE", "trading_data.json")
	viper.SetDefault("BROKER_KIND", "paper")
	viper.SetDefault("BROKER_EMAIL", "")
	viper.SetDefault("BROKER_PASSWORD", "")
	viper.SetDefault("MODEL_URL", "")
	viper.SetDefault("MODEL_WEIGHTS", "model_weights.json")
	viper.SetDefault("ASSET", "EURUSD-OTC")
	viper.SetDefault("CANDLE_COUNT", 120)
	viper.SetDefault("CANDLE_SECS", 300)

	err = viper.ReadInConfig()
	// If config file not found, we can still use env vars
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	}

	if err != nil {
		return Config{}, err
	}
	err = viper.Unmarshal(&config)
	return
}
