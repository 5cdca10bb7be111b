package config

import "time"

type EventsConfig struct {
	KafkaBrokers      []string      `yaml:"kafka_brokers"`
	KafkaTopic        string        `yaml:"kafka_topic"`
	KafkaWriteTimeout time.Duration `yaml:"kafka_write_timeout"`
	RedisChannel      string        `yaml:"redis_channel"`
}

func loadEventsConfig() *EventsConfig {
	return &EventsConfig{
		KafkaBrokers:      getEnvAsSlice("KAFKA_BROKERS", nil),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "hotelops.chauffeur.events"),
		KafkaWriteTimeout: getEnvAsDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second),
		RedisChannel:      getEnv("EVENTS_REDIS_CHANNEL", ""),
	}
}
