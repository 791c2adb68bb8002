package cfg

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "shop"

type ViperLoader struct {
	v                     *viper.Viper
	configDir             string
	configName            string
	watch                 bool
	once                  sync.Once
	mu                    sync.RWMutex
	cfg                   *Config
	configChangeCallbacks []func(*Config)
}

type ViperOption func(*ViperLoader)

func WithConfigDir(dir string) ViperOption {
	return func(vl *ViperLoader) {
		if dir != "" {
			vl.configDir = dir
		}
	}
}

func WithConfigName(name string) ViperOption {
	return func(vl *ViperLoader) {
		if name != "" {
			vl.configName = name
		}
	}
}

// WithWatch toggles hot reload of the config file.
func WithWatch(watch bool) ViperOption {
	return func(vl *ViperLoader) {
		vl.watch = watch
	}
}

func NewViperLoader(opts ...ViperOption) (*ViperLoader, error) {
	vl := &ViperLoader{
		v:                     viper.New(),
		configDir:             "cfg/yaml",
		configName:            "mode",
		watch:                 true,
		configChangeCallbacks: make([]func(*Config), 0),
	}
	for _, opt := range opts {
		opt(vl)
	}
	return vl, nil
}

func (vl *ViperLoader) Load() (*Config, error) {
	var err error
	vl.once.Do(func() {
		err = vl.loadConfig()
		if err == nil && vl.IsWatchChange() {
			vl.v.WatchConfig()
			vl.v.OnConfigChange(func(e fsnotify.Event) {
				fmt.Printf("[INFO][CONFIG] Config file changed: %s\n", e.Name)
				if errReload := vl.reloadConfig(); errReload != nil {
					fmt.Printf("[ERROR][CONFIG] Failed to reload config: %v\n", errReload)
				}
			})
		}
	})

	if err != nil {
		return nil, err
	}

	vl.mu.RLock()
	defer vl.mu.RUnlock()
	if vl.cfg == nil {
		return nil, errors.New("[ERROR][CONFIG] config was not loaded")
	}
	return vl.cfg, nil
}

func (vl *ViperLoader) IsWatchChange() bool {
	return vl.watch && vl.v.ConfigFileUsed() != ""
}

func (vl *ViperLoader) RegisterConfigChangeCallback(callback func(*Config)) {
	vl.mu.Lock()
	vl.configChangeCallbacks = append(vl.configChangeCallbacks, callback)
	vl.mu.Unlock()
}

func (vl *ViperLoader) loadConfig() error {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	vl.setDefaults()
	vl.v.SetEnvPrefix(envPrefix)
	vl.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vl.v.AutomaticEnv()

	vl.v.AddConfigPath(vl.configDir)
	vl.v.SetConfigName(vl.configName)
	vl.v.SetConfigType("yaml")
	if err := vl.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("[ERROR][CONFIG] failed to read config file: %w", err)
		}
		fmt.Printf("[WARN][CONFIG] No config file in %s, using defaults and environment\n", vl.configDir)
	}

	cfg := &Config{}
	if err := vl.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config: %w", err)
	}

	vl.mu.Lock()
	vl.cfg = cfg
	vl.mu.Unlock()

	return nil
}

func (vl *ViperLoader) reloadConfig() error {
	cfg := &Config{}
	if err := vl.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("[ERROR][CONFIG] failed to unmarshal config during reload: %w", err)
	}

	vl.mu.Lock()
	vl.cfg = cfg
	callbacks := make([]func(*Config), len(vl.configChangeCallbacks))
	copy(callbacks, vl.configChangeCallbacks)
	vl.mu.Unlock()
	for _, callback := range callbacks {
		go callback(cfg)
	}

	fmt.Println("[INFO][CONFIG] Configuration reloaded successfully")
	return nil
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func (vl *ViperLoader) setDefaults() {
	defaults := map[string]interface{}{
		"app.name":        "ecommerce-api",
		"app.version":     "1.0.0",
		"app.env":         "development",
		"app.logdriver":   "zap",
		"app.loglevel":    "info",
		"app.frontendurl": "http://localhost:5173",

		"http.port":            3000,
		"http.allowedorigins":  []string{"http://localhost:5173"},
		"http.responsedelayms": 0,
		"http.maxbodybytes":    int64(10 << 20),

		"mysql.host":                  "127.0.0.1",
		"mysql.port":                  "3306",
		"mysql.username":              "root",
		"mysql.password":              "",
		"mysql.database":              "ecommerce",
		"mysql.maxidleconnection":     10,
		"mysql.maxopenconnection":     10,
		"mysql.maxlifetimeconnection": 3600,

		"jwt.secret":            "",
		"jwt.refreshsecret":     "",
		"jwt.accessttlminutes":  15,
		"jwt.refreshttlhours":   7 * 24,
		"jwt.resettokenminutes": 10,

		"elasticsearch.enabled":   true,
		"elasticsearch.addresses": []string{"http://localhost:9200"},
		"elasticsearch.username":  "",
		"elasticsearch.password":  "",
		"elasticsearch.index":     "products",

		"kafka.enabled":      false,
		"kafka.brokers":      []string{"localhost:9092"},
		"kafka.topicproduct": "product-events",

		"mail.host":     "",
		"mail.port":     587,
		"mail.username": "",
		"mail.password": "",
		"mail.from":     "",

		"ratelimit.windowminutes": 15,
		"ratelimit.generalmax":    100,
		"ratelimit.authmax":       5,

		"admin.username": "",
		"admin.email":    "",
		"admin.password": "",
	}
	for key, value := range defaults {
		vl.v.SetDefault(key, value)
	}
}
