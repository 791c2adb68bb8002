package cfg

type (
	App struct {
		Name        string
		Version     string
		Env         string
		LogDriver   string
		LogLevel    string
		FrontendUrl string
	}

	Http struct {
		Port            int
		AllowedOrigins  []string
		ResponseDelayMs int
		MaxBodyBytes    int64
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	Jwt struct {
		Secret            string
		RefreshSecret     string
		AccessTtlMinutes  int
		RefreshTtlHours   int
		ResetTokenMinutes int
	}

	Elasticsearch struct {
		Enabled   bool
		Addresses []string
		Username  string
		Password  string
		Index     string
	}

	Kafka struct {
		Enabled      bool
		Brokers      []string
		TopicProduct string
	}

	Mail struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}

	RateLimit struct {
		WindowMinutes int
		GeneralMax    int
		AuthMax       int
	}

	Admin struct {
		Username string
		Email    string
		Password string
	}
)

type Config struct {
	App           App
	Http          Http
	Mysql         Mysql
	Jwt           Jwt
	Elasticsearch Elasticsearch
	Kafka         Kafka
	Mail          Mail
	RateLimit     RateLimit
	Admin         Admin
}
