package cli

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/IYouKnow/zfs-stats/internal/logging"
	"github.com/IYouKnow/zfs-stats/internal/zfs"
)

// Config is the resolved configuration from flags, environment and config file.
type Config struct {
	Host       string
	Port       string
	ZFSBin     string
	ZFSTimeout time.Duration
	AssetsDir  string
	UsersFile  string
	MaxConns   int
	LogLevel   string
	LogFormat  string
	LogBacklog int
}

func loadConfig() Config {
	return Config{
		Host:       viper.GetString("host"),
		Port:       viper.GetString("port"),
		ZFSBin:     viper.GetString("zfs_bin"),
		ZFSTimeout: viper.GetDuration("zfs_timeout"),
		AssetsDir:  viper.GetString("assets_dir"),
		UsersFile:  viper.GetString("users_file"),
		MaxConns:   viper.GetInt("max_conns"),
		LogLevel:   viper.GetString("log_level"),
		LogFormat:  viper.GetString("log_format"),
		LogBacklog: viper.GetInt("log_backlog"),
	}
}

// Addr is the listen address built from Host and Port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) newLogger() (*logrus.Logger, *logging.Broadcaster, error) {
	return logging.New(logging.Options{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Backlog: c.LogBacklog,
	})
}

func (c Config) newLister(log logrus.FieldLogger) *zfs.Lister {
	return &zfs.Lister{
		Bin:     c.ZFSBin,
		Timeout: c.ZFSTimeout,
		Log:     log,
	}
}
