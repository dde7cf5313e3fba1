// Command binlog-dump connects to a MySQL/MariaDB server, replicates its
// binlog stream, and dumps each decoded event to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/client"
	"github.com/rusuly/mysql-cdc/replication"
)

var configPath = flag.String("config", "", "path to a TOML config file (see config below); flags below override its values")

// config is the on-disk shape of the optional TOML config file.
type config struct {
	Hostname string `toml:"hostname"`
	Port     uint16 `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	ServerID uint32 `toml:"server_id"`

	PositionFile string `toml:"position_file"`
}

var (
	hostname = flag.String("host", "localhost", "server hostname")
	port     = flag.Uint("port", 3306, "server port")
	username = flag.String("user", "root", "username")
	password = flag.String("password", "", "password")
	database = flag.String("database", "", "optional database name")
	serverID = flag.Uint("server-id", 65535, "replica server id")

	positionFile = flag.String("position-file", "", "path to persist/resume the binlog position (see client.PositionStore); empty disables persistence")
)

func main() {
	flag.Parse()

	cfg := config{
		Hostname: *hostname,
		Port:     uint16(*port),
		Username: *username,
		Password: *password,
		Database: *database,
		ServerID: uint32(*serverID),

		PositionFile: *positionFile,
	}
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			fatalf("load config %s: %v", *configPath, err)
		}
		// Flags given explicitly on the command line take precedence over the file.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "host":
				cfg.Hostname = *hostname
			case "port":
				cfg.Port = uint16(*port)
			case "user":
				cfg.Username = *username
			case "password":
				cfg.Password = *password
			case "database":
				cfg.Database = *database
			case "server-id":
				cfg.ServerID = uint32(*serverID)
			case "position-file":
				cfg.PositionFile = *positionFile
			}
		})
	}

	options := client.NewReplicaOptions()
	options.Hostname = cfg.Hostname
	options.Port = cfg.Port
	options.Username = cfg.Username
	options.Password = cfg.Password
	options.Database = cfg.Database
	options.ServerID = cfg.ServerID

	var positions *client.PositionStore
	if cfg.PositionFile != "" {
		positions = client.NewPositionStore(cfg.PositionFile)
		if saved, err := positions.Load(); err == nil {
			options.Binlog = saved
		}
	}

	binlogClient := client.NewBinlogClient(options).WithLogger(slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("binlog-dump: starting", slog.String("host", options.Hostname), slog.Uint64("port", uint64(options.Port)))

	err := binlogClient.Replicate(ctx, func(header *replication.EventHeader, event replication.Event) error {
		header.Dump(os.Stdout)
		event.Dump(os.Stdout)

		if positions != nil {
			if err := positions.Save(binlogClient.Options().Binlog); err != nil {
				return errors.Annotatef(err, "save position")
			}
		}
		return nil
	})
	if err != nil && errors.Cause(err) != context.Canceled {
		fatalf("replicate: %v", errors.ErrorStack(err))
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
