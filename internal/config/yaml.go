package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlDuration decodes Go duration strings ("15s", "24h") from YAML.
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, value.Value)
	}
	*d = yamlDuration(parsed)
	return nil
}

// The sections below decode through raw structs with pointer fields so that
// keys absent from the file keep their current values.

func (c *ServerConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Host            *string       `yaml:"host"`
		Port            *int          `yaml:"port"`
		ReadTimeout     *yamlDuration `yaml:"read_timeout"`
		WriteTimeout    *yamlDuration `yaml:"write_timeout"`
		ShutdownTimeout *yamlDuration `yaml:"shutdown_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Host != nil {
		c.Host = *raw.Host
	}
	if raw.Port != nil {
		c.Port = *raw.Port
	}
	if raw.ReadTimeout != nil {
		c.ReadTimeout = time.Duration(*raw.ReadTimeout)
	}
	if raw.WriteTimeout != nil {
		c.WriteTimeout = time.Duration(*raw.WriteTimeout)
	}
	if raw.ShutdownTimeout != nil {
		c.ShutdownTimeout = time.Duration(*raw.ShutdownTimeout)
	}
	return nil
}

func (c *MongoDBConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		URI         *string       `yaml:"uri"`
		Database    *string       `yaml:"database"`
		Timeout     *yamlDuration `yaml:"timeout"`
		MaxPoolSize *uint64       `yaml:"max_pool_size"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.URI != nil {
		c.URI = *raw.URI
	}
	if raw.Database != nil {
		c.Database = *raw.Database
	}
	if raw.Timeout != nil {
		c.Timeout = time.Duration(*raw.Timeout)
	}
	if raw.MaxPoolSize != nil {
		c.MaxPoolSize = *raw.MaxPoolSize
	}
	return nil
}

func (c *KafkaConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Brokers  []string      `yaml:"brokers"`
		MinBytes *int          `yaml:"min_bytes"`
		MaxBytes *int          `yaml:"max_bytes"`
		MaxWait  *yamlDuration `yaml:"max_wait"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Brokers != nil {
		c.Brokers = raw.Brokers
	}
	if raw.MinBytes != nil {
		c.MinBytes = *raw.MinBytes
	}
	if raw.MaxBytes != nil {
		c.MaxBytes = *raw.MaxBytes
	}
	if raw.MaxWait != nil {
		c.MaxWait = time.Duration(*raw.MaxWait)
	}
	return nil
}

func (c *IdempotencyConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CommandTTL *yamlDuration `yaml:"command_ttl"`
		EventTTL   *yamlDuration `yaml:"event_ttl"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.CommandTTL != nil {
		c.CommandTTL = time.Duration(*raw.CommandTTL)
	}
	if raw.EventTTL != nil {
		c.EventTTL = time.Duration(*raw.EventTTL)
	}
	return nil
}
