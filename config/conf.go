package config

import "time"

type Conf struct {
	HTTPAddr       string        `env:"HTTP_ADDR" default:":4000"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS" default:"https://store-sub000.vercel.app"`
	NatsURL        string        `env:"NATS_URL"`
	NatsSubject    string        `env:"NATS_SUBJECT" default:"storefront.notifications"`
	JournalDSN     string        `env:"JOURNAL_DSN" default:"file::memory:?cache=shared"`
	LogLevel       string        `env:"LOG_LEVEL" default:"info"`
	WriteTimeout   time.Duration `env:"WS_WRITE_TIMEOUT" default:"10s"`
	ReadTimeout    time.Duration `env:"WS_READ_TIMEOUT" default:"60s"`
}

func New() (*Conf, error) {
	conf := &Conf{}
	if err := Parse(conf); err != nil {
		return nil, err
	}

	return conf, nil
}
