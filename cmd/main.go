package main

import (
	"github.com/everFinance/ledgersync"
	"github.com/everFinance/ledgersync/config"
	"github.com/everFinance/ledgersync/sdk"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "ledgersync",
		Usage: "mirror one account of a remote ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "", Usage: "yaml config file path", EnvVars: []string{"CONFIG"}},
			&cli.StringFlag{Name: "public_key", Usage: "account public key", EnvVars: []string{"PUBLIC_KEY"}},
			&cli.StringFlag{Name: "actor", Usage: "account actor name", EnvVars: []string{"ACTOR"}},
			&cli.StringFlag{Name: "api_endpoints", Usage: "comma separated chain api endpoints", EnvVars: []string{"API_ENDPOINTS"}},
			&cli.StringFlag{Name: "history_endpoints", Usage: "comma separated history endpoints", EnvVars: []string{"HISTORY_ENDPOINTS"}},
			&cli.StringFlag{Name: "db_dir", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Usage: "mysql dsn, replaces sqlite when set", EnvVars: []string{"MYSQL"}},
			&cli.StringFlag{Name: "port", Usage: "api listen address", EnvVars: []string{"PORT"}},
			&cli.BoolFlag{Name: "kafka", Value: false, Usage: "publish changes to kafka", EnvVars: []string{"KAFKA"}},
			&cli.StringFlag{Name: "kafka_uri", Usage: "kafka broker address", EnvVars: []string{"KAFKA_URI"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	// flags override the config file
	if v := c.String("public_key"); v != "" {
		cfg.PublicKey = v
	}
	if v := c.String("actor"); v != "" {
		cfg.Actor = v
	}
	if v := c.String("api_endpoints"); v != "" {
		cfg.ApiEndpoints = strings.Split(v, ",")
	}
	if v := c.String("history_endpoints"); v != "" {
		cfg.HistoryEndpoints = strings.Split(v, ",")
	}
	if v := c.String("db_dir"); v != "" {
		cfg.BoltDir = v
	}
	if v := c.String("mysql"); v != "" {
		cfg.Mysql = v
	}
	if v := c.String("port"); v != "" {
		cfg.Port = v
	}
	if c.Bool("kafka") {
		cfg.Kafka.Start = true
		cfg.Kafka.Uri = c.String("kafka_uri")
	}

	s, err := ledgersync.New(cfg, sdk.New(cfg.Timeout), nil, nil)
	if err != nil {
		return err
	}
	s.Run(cfg.Port)

	<-signals
	s.Close()
	return nil
}
