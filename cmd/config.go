package cmd

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/spf13/viper"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/fetch"
	"dbmd-fetch/internal/schema"
)

// ---------------------------------------------------------------------
// 1. Connection properties
// ---------------------------------------------------------------------

// ConnProps is the content of a connection properties file.
type ConnProps struct {
	URL      string `mapstructure:"url"`
	Driver   string `mapstructure:"driver"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// LoadConnProps reads a Java-style .properties file (db.* or jdbc.* keys) or, for files ending
// in .env, a dotenv file (DB_* keys).
func LoadConnProps(path string) (*ConnProps, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: connection properties file was not found at '%s'", schema.ErrConfig, path)
	}

	var props ConnProps
	if strings.HasSuffix(strings.ToLower(filepath.Base(path)), ".env") {
		env, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read connection properties: %w", err)
		}
		props = ConnProps{
			URL:      env["DB_URL"],
			Driver:   env["DB_DRIVER"],
			Username: env["DB_USERNAME"],
			Password: env["DB_PASSWORD"],
		}
	} else {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("properties")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read connection properties: %w", err)
		}
		for _, prefix := range []string{"db", "jdbc"} {
			if err := v.UnmarshalKey(prefix, &props); err != nil {
				return nil, fmt.Errorf("failed to parse connection properties: %w", err)
			}
			if props.URL != "" {
				break
			}
		}
	}

	props.URL = strings.TrimSpace(props.URL)
	props.Driver = strings.TrimSpace(props.Driver)
	if props.URL == "" {
		return nil, fmt.Errorf("%w: connection properties file '%s' has no db.url", schema.ErrConfig, path)
	}
	return &props, nil
}

// DSN returns the driver name and data source name to open, with the credentials merged in.
func (p *ConnProps) DSN(d dialect.Dialect) (driver, dsn string, err error) {
	driver = p.Driver
	if driver == "" {
		driver = d.DefaultDriver()
	}
	dsn, err = mergeCredentials(driver, p.URL, p.Username, p.Password)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid db.url for driver %s: %v", schema.ErrConfig, driver, err)
	}
	return driver, dsn, nil
}

func mergeCredentials(driver, raw, user, password string) (string, error) {
	if user == "" && password == "" {
		return raw, nil
	}

	switch driver {
	case "mysql":
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", err
		}
		if user != "" {
			cfg.User = user
		}
		cfg.Passwd = password
		return cfg.FormatDSN(), nil

	case "sqlserver", "mssql":
		cfg, err := msdsn.Parse(raw)
		if err != nil {
			return "", err
		}
		if user != "" {
			cfg.User = user
		}
		cfg.Password = password
		return cfg.URL().String(), nil

	case "sqlite3":
		return raw, nil
	}

	if !strings.Contains(raw, "://") {
		if driver == "postgres" || driver == "pgx" {
			return raw + keywordCredentials(user, password), nil
		}
		return "", fmt.Errorf("expected a URL")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if user == "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}

// keywordCredentials renders user/password as libpq key=value pairs.
func keywordCredentials(user, password string) string {
	quote := func(v string) string {
		v = strings.ReplaceAll(v, `\`, `\\`)
		return "'" + strings.ReplaceAll(v, `'`, `\'`) + "'"
	}
	var sb strings.Builder
	if user != "" {
		sb.WriteString(" user=" + quote(user))
	}
	sb.WriteString(" password=" + quote(password))
	return sb.String()
}

// ---------------------------------------------------------------------
// 2. Application settings (flags > env > config file > defaults)
// ---------------------------------------------------------------------

type AppConfig struct {
	IncludeRegex       string        `mapstructure:"include_regex"`
	ExcludeRegex       string        `mapstructure:"exclude_regex"`
	IncludeRegexBase64 string        `mapstructure:"include_regex_base64"`
	ExcludeRegexBase64 string        `mapstructure:"exclude_regex_base64"`
	Schema             string        `mapstructure:"schema"`
	DateMapping        string        `mapstructure:"date_mapping"`
	IncludeViews       bool          `mapstructure:"include_views"`
	IncludeForeignKeys bool          `mapstructure:"include_foreign_keys"`
	NoViews            bool          `mapstructure:"no_views"`
	NoForeignKeys      bool          `mapstructure:"no_fks"`
	UseGenericMd       bool          `mapstructure:"use_generic_md"`
	Progress           bool          `mapstructure:"progress"`
	Timeout            time.Duration `mapstructure:"timeout"`
	LogLevel           string        `mapstructure:"log_level"`
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("include_views", true)
	v.SetDefault("include_foreign_keys", true)
	v.SetDefault("date_mapping", schema.DatesAsDriverReported.String())
	v.SetDefault("log_level", "info")
}

func loadAppConfig(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse settings: %v", schema.ErrConfig, err)
	}
	return &cfg, nil
}

// Filter resolves the relation patterns. A plain pattern wins over its base64 form.
func (c *AppConfig) Filter() (fetch.Filter, error) {
	include, err := pattern(c.IncludeRegex, c.IncludeRegexBase64, "include")
	if err != nil {
		return fetch.Filter{}, err
	}
	exclude, err := pattern(c.ExcludeRegex, c.ExcludeRegexBase64, "exclude")
	if err != nil {
		return fetch.Filter{}, err
	}
	return fetch.Filter{Include: include, Exclude: exclude}, nil
}

func pattern(plain, encoded, which string) (string, error) {
	if p := strings.TrimSpace(plain); p != "" {
		return p, nil
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", nil
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %s pattern is not valid base64: %v", schema.ErrConfig, which, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Options builds the extraction options; patterns are compiled later by the fetcher.
func (c *AppConfig) Options() (schema.Options, error) {
	opts := schema.Options{
		IncludeViews:       c.IncludeViews && !c.NoViews,
		IncludeForeignKeys: c.IncludeForeignKeys && !c.NoForeignKeys,
	}
	if s := strings.TrimSpace(c.Schema); s != "" {
		opts.Schema = &s
	}
	m, err := schema.ParseDateMapping(c.DateMapping)
	if err != nil {
		return opts, err
	}
	opts.DateMapping = m
	return opts, nil
}
