package cmd

import (
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-sql-driver/mysql"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func mustDialect(t *testing.T, tag string) dialect.Dialect {
	t.Helper()
	d, err := dialect.GetDialect(tag)
	require.NoError(t, err)
	return d
}

func TestLoadConnProps_Properties(t *testing.T) {
	path := writeFile(t, "conn.properties", `# shop database
db.url = postgres://db.example.com:5432/shop
db.driver = pgx
db.username = reader
db.password = s3cret
`)
	props, err := LoadConnProps(path)
	require.NoError(t, err)
	assert.Equal(t, &ConnProps{
		URL:      "postgres://db.example.com:5432/shop",
		Driver:   "pgx",
		Username: "reader",
		Password: "s3cret",
	}, props)
}

func TestLoadConnProps_JdbcPrefix(t *testing.T) {
	path := writeFile(t, "conn.properties", "jdbc.url=file:shop.db\n")
	props, err := LoadConnProps(path)
	require.NoError(t, err)
	assert.Equal(t, "file:shop.db", props.URL)
	assert.Empty(t, props.Driver)
}

func TestLoadConnProps_Dotenv(t *testing.T) {
	path := writeFile(t, "shop.env", `DB_URL="reader@tcp(localhost:3306)/shop"
DB_PASSWORD=hunter2
`)
	props, err := LoadConnProps(path)
	require.NoError(t, err)
	assert.Equal(t, "reader@tcp(localhost:3306)/shop", props.URL)
	assert.Equal(t, "hunter2", props.Password)
}

func TestLoadConnProps_Errors(t *testing.T) {
	_, err := LoadConnProps(filepath.Join(t.TempDir(), "missing.properties"))
	assert.ErrorIs(t, err, schema.ErrConfig)

	_, err = LoadConnProps(writeFile(t, "conn.properties", "db.username=reader\n"))
	assert.ErrorIs(t, err, schema.ErrConfig)
}

func TestConnProps_DSN(t *testing.T) {
	user := gofakeit.Username()
	password := gofakeit.Password(true, true, true, false, false, 16)

	t.Run("mysql", func(t *testing.T) {
		p := &ConnProps{URL: "tcp(localhost:3306)/shop", Username: user, Password: password}
		driver, dsn, err := p.DSN(mustDialect(t, "mysql"))
		require.NoError(t, err)
		assert.Equal(t, "mysql", driver)

		cfg, err := mysql.ParseDSN(dsn)
		require.NoError(t, err)
		assert.Equal(t, user, cfg.User)
		assert.Equal(t, password, cfg.Passwd)
		assert.Equal(t, "shop", cfg.DBName)
	})

	t.Run("postgres url", func(t *testing.T) {
		p := &ConnProps{URL: "postgres://old@localhost/shop?sslmode=disable", Password: password}
		driver, dsn, err := p.DSN(mustDialect(t, "pg"))
		require.NoError(t, err)
		assert.Equal(t, "postgres", driver)

		u, err := url.Parse(dsn)
		require.NoError(t, err)
		assert.Equal(t, "old", u.User.Username(), "url user is kept when none is configured")
		got, _ := u.User.Password()
		assert.Equal(t, password, got)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
	})

	t.Run("postgres keywords", func(t *testing.T) {
		p := &ConnProps{URL: "host=localhost dbname=shop", Driver: "pgx", Username: "o'brien", Password: `a\b`}
		driver, dsn, err := p.DSN(mustDialect(t, "pg"))
		require.NoError(t, err)
		assert.Equal(t, "pgx", driver)
		assert.Equal(t, `host=localhost dbname=shop user='o\'brien' password='a\\b'`, dsn)
	})

	t.Run("sqlserver", func(t *testing.T) {
		p := &ConnProps{URL: "sqlserver://localhost:1433?database=shop", Username: user, Password: password}
		driver, dsn, err := p.DSN(mustDialect(t, "mssql"))
		require.NoError(t, err)
		assert.Equal(t, "sqlserver", driver)

		cfg, err := msdsn.Parse(dsn)
		require.NoError(t, err)
		assert.Equal(t, user, cfg.User)
		assert.Equal(t, password, cfg.Password)
		assert.Equal(t, "shop", cfg.Database)
	})

	t.Run("sqlite ignores credentials", func(t *testing.T) {
		p := &ConnProps{URL: "file:shop.db", Username: user, Password: password}
		_, dsn, err := p.DSN(mustDialect(t, "sqlite"))
		require.NoError(t, err)
		assert.Equal(t, "file:shop.db", dsn)
	})

	t.Run("no credentials", func(t *testing.T) {
		p := &ConnProps{URL: "anything goes"}
		_, dsn, err := p.DSN(mustDialect(t, "ora"))
		require.NoError(t, err)
		assert.Equal(t, "anything goes", dsn)
	})

	t.Run("invalid", func(t *testing.T) {
		p := &ConnProps{URL: "host=localhost", Username: user}
		_, _, err := p.DSN(mustDialect(t, "ora"))
		assert.ErrorIs(t, err, schema.ErrConfig)
	})
}

func newTestViper() *viper.Viper {
	v := viper.New()
	setConfigDefaults(v)
	return v
}

func TestLoadAppConfig_Defaults(t *testing.T) {
	cfg, err := loadAppConfig(newTestViper())
	require.NoError(t, err)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, schema.DefaultOptions(), opts)
	assert.Equal(t, "info", cfg.LogLevel)

	f, err := cfg.Filter()
	require.NoError(t, err)
	assert.Empty(t, f.Include)
	assert.Empty(t, f.Exclude)
}

func TestLoadAppConfig_Overrides(t *testing.T) {
	v := newTestViper()
	v.Set("schema", " sales ")
	v.Set("no_views", true)
	v.Set("date_mapping", schema.DatesAsTimestamps.String())
	v.Set("timeout", "90s")

	cfg, err := loadAppConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Timeout)

	opts, err := cfg.Options()
	require.NoError(t, err)
	require.NotNil(t, opts.Schema)
	assert.Equal(t, "sales", *opts.Schema)
	assert.False(t, opts.IncludeViews)
	assert.True(t, opts.IncludeForeignKeys)
	assert.Equal(t, schema.DatesAsTimestamps, opts.DateMapping)

	v.Set("date_mapping", "sometimes")
	cfg, err = loadAppConfig(v)
	require.NoError(t, err)
	_, err = cfg.Options()
	assert.ErrorIs(t, err, schema.ErrConfig)
}

func TestAppConfig_Filter(t *testing.T) {
	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	cfg := &AppConfig{IncludeRegexBase64: enc(`public\.(orders|items)`), ExcludeRegexBase64: enc(".*_tmp")}
	f, err := cfg.Filter()
	require.NoError(t, err)
	assert.Equal(t, `public\.(orders|items)`, f.Include)
	assert.Equal(t, ".*_tmp", f.Exclude)

	cfg.IncludeRegex = "public\\..*"
	f, err = cfg.Filter()
	require.NoError(t, err)
	assert.Equal(t, "public\\..*", f.Include, "plain pattern wins over base64")

	cfg.ExcludeRegexBase64 = "not base64!"
	_, err = cfg.Filter()
	assert.ErrorIs(t, err, schema.ErrConfig)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger("chatty")
	assert.ErrorIs(t, err, schema.ErrConfig)
}
