package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:        "ecommerce-api",
			Version:     "1.0.0",
			Env:         "development",
			LogDriver:   "console",
			LogLevel:    "debug",
			FrontendUrl: "http://localhost:5173",
		},

		// Http
		Http: Http{
			Port:           3000,
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxBodyBytes:   10 << 20,
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "ecommerce",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// Jwt
		Jwt: Jwt{
			Secret:            "mock-access-secret",
			RefreshSecret:     "mock-refresh-secret",
			AccessTtlMinutes:  15,
			RefreshTtlHours:   7 * 24,
			ResetTokenMinutes: 10,
		},

		// Elasticsearch
		Elasticsearch: Elasticsearch{
			Enabled:   false,
			Addresses: []string{"http://localhost:9200"},
			Index:     "products",
		},

		// Kafka
		Kafka: Kafka{
			Enabled:      false,
			Brokers:      []string{"localhost:9092"},
			TopicProduct: "product-events",
		},

		// RateLimit
		RateLimit: RateLimit{
			WindowMinutes: 15,
			GeneralMax:    100,
			AuthMax:       5,
		},
	}, nil
}
