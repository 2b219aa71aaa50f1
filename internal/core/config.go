package core

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config describes a database connection. Driver is one of mysql, pgsql
// (or postgres), sqlite (pure Go) or sqlite3 (cgo).
type Config struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Database   string `yaml:"database"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Charset    string `yaml:"charset"`
	Collation  string `yaml:"collation"`
	SQLitePath string `yaml:"sqlite_path"`
	SSLMode    string `yaml:"sslmode"`
}

var configDefaults = map[string]any{
	"driver":      "mysql",
	"host":        "localhost",
	"port":        3306,
	"database":    "wee",
	"username":    "root",
	"password":    "",
	"charset":     "utf8mb4",
	"collation":   "utf8mb4_unicode_ci",
	"sqlite_path": "database.sqlite",
	"sslmode":     "disable",
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Driver:     configDefaults["driver"].(string),
		Host:       configDefaults["host"].(string),
		Port:       configDefaults["port"].(int),
		Database:   configDefaults["database"].(string),
		Username:   configDefaults["username"].(string),
		Charset:    configDefaults["charset"].(string),
		Collation:  configDefaults["collation"].(string),
		SQLitePath: configDefaults["sqlite_path"].(string),
		SSLMode:    configDefaults["sslmode"].(string),
	}
}

// LoadConfig reads a YAML document. Missing keys keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("wee: decode config: %w", err)
	}
	return cfg, nil
}

// ConfigFromEnv reads DB_DRIVER, DB_HOST, DB_PORT, DB_DATABASE, DB_USERNAME,
// DB_PASSWORD, DB_CHARSET, DB_COLLATION, DB_SQLITE_PATH and DB_SSLMODE.
func ConfigFromEnv() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, def := range configDefaults {
		v.SetDefault(key, def)
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("wee: bind %s: %w", key, err)
		}
	}

	port, err := strconv.Atoi(v.GetString("port"))
	if err != nil {
		return Config{}, fmt.Errorf("wee: DB_PORT: %w", err)
	}
	return Config{
		Driver:     v.GetString("driver"),
		Host:       v.GetString("host"),
		Port:       port,
		Database:   v.GetString("database"),
		Username:   v.GetString("username"),
		Password:   v.GetString("password"),
		Charset:    v.GetString("charset"),
		Collation:  v.GetString("collation"),
		SQLitePath: v.GetString("sqlite_path"),
		SSLMode:    v.GetString("sslmode"),
	}, nil
}

// DSN renders the driver-specific data source name.
func (c Config) DSN() (string, error) {
	switch drivers[c.Driver] {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		mc.Collation = c.Collation
		if c.Charset != "" {
			mc.Params = map[string]string{"charset": c.Charset}
		}
		return mc.FormatDSN(), nil
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Username, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
		}
		return u.String(), nil
	case "sqlite":
		return withParam(c.SQLitePath, "_pragma=foreign_keys(1)"), nil
	case "sqlite3":
		return withParam(c.SQLitePath, "_foreign_keys=on"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
}

func withParam(path, param string) string {
	if strings.Contains(path, "?") {
		return path + "&" + param
	}
	return path + "?" + param
}
