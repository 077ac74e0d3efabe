package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/trackforge/defecttrack/pkg/logutils"
)

type Config struct {
	// Port settings
	Host        string `yaml:"host"`        // The domain name of the server.
	ServerAddr  string `yaml:"serverAddr"`  // The address the API endpoint binds to.
	MetricsAddr string `yaml:"metricsAddr"` // The address the metrics endpoint binds to.
	FrontendURL string `yaml:"frontendURL"` // CORS origin allowed in debug mode.

	Auth struct {
		AccessTokenSecret      string `yaml:"accessTokenSecret"`
		RefreshTokenSecret     string `yaml:"refreshTokenSecret"`
		AccessTokenExpiryHour  int    `yaml:"accessTokenExpiryHour"`
		RefreshTokenExpiryHour int    `yaml:"refreshTokenExpiryHour"`
	} `yaml:"auth"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		DBName   string `yaml:"dbname"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		TimeZone string `yaml:"timeZone"`
	} `yaml:"postgres"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		FromName string `yaml:"fromName"`
	} `yaml:"smtp"`

	Cron struct {
		// Spec for the grant/allocation expiry sweeper, cron syntax.
		ExpirySweepSpec string `yaml:"expirySweepSpec"`
	} `yaml:"cron"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode the path can be
// overridden with DEFECTTRACK_DEBUG_CONFIG_PATH; in production the file is
// mounted at /etc/config/config.yaml.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("DEFECTTRACK_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("DEFECTTRACK_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	logutils.Log.Info("config path: ", configPath)

	if err := readConfig(configPath, config); err != nil {
		logutils.Log.Error("init config: ", err)
		panic(err)
	}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Auth.AccessTokenExpiryHour == 0 {
		c.Auth.AccessTokenExpiryHour = 1
	}
	if c.Auth.RefreshTokenExpiryHour == 0 {
		c.Auth.RefreshTokenExpiryHour = 168
	}
	if c.Cron.ExpirySweepSpec == "" {
		c.Cron.ExpirySweepSpec = "@hourly"
	}
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}
