package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/permadex/marketseed"
	"github.com/permadex/marketseed/common"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name: "marketseed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Value: "root@tcp(127.0.0.1:3306)/marketseed?charset=utf8mb4&parseTime=True&loc=Local", Usage: "mysql dsn", EnvVars: []string{"MYSQL"}},
			&cli.BoolFlag{Name: "use_sqlite", Value: false, Usage: "run with sqlite instead of mysql", EnvVars: []string{"USE_SQLITE"}},
			&cli.StringFlag{Name: "sqlite_dir", Value: "./data/sqlite", Usage: "sqlite db dir path", EnvVars: []string{"SQLITE_DIR"}},
			&cli.StringFlag{Name: "config_dsn", Value: "", Usage: "config db dsn, empty means sqlite in sqlite_dir", EnvVars: []string{"CONFIG_DSN"}},
			&cli.StringFlag{Name: "rpc_url", Value: "", Usage: "evm rpc node url, empty means local token book", EnvVars: []string{"RPC_URL"}},
			&cli.StringFlag{Name: "operator_key", Value: "", Usage: "market operator private key hex", EnvVars: []string{"OPERATOR_KEY"}},

			&cli.BoolFlag{Name: "s3_flag", Value: false, Usage: "run with s3 store", EnvVars: []string{"S3_FLAG"}},
			&cli.StringFlag{Name: "s3_acc_key", Value: "", Usage: "s3 access key", EnvVars: []string{"S3_ACC_KEY"}},
			&cli.StringFlag{Name: "s3_secret_key", Value: "", Usage: "s3 secret key", EnvVars: []string{"S3_SECRET_KEY"}},
			&cli.StringFlag{Name: "s3_prefix", Value: "marketseed", Usage: "s3 bucket name prefix", EnvVars: []string{"S3_PREFIX"}},
			&cli.StringFlag{Name: "s3_region", Value: "ap-northeast-1", Usage: "s3 bucket region", EnvVars: []string{"S3_REGION"}},
			&cli.StringFlag{Name: "s3_endpoint", Value: "", Usage: "s3 custom endpoint", EnvVars: []string{"S3_ENDPOINT"}},
			&cli.BoolFlag{Name: "use_4ever", Value: false, Usage: "run with 4everland s3 endpoint", EnvVars: []string{"USE_4EVER"}},
			&cli.BoolFlag{Name: "aliyun_flag", Value: false, Usage: "run with aliyun oss store", EnvVars: []string{"ALIYUN_FLAG"}},
			&cli.StringFlag{Name: "aliyun_endpoint", Value: "", EnvVars: []string{"ALIYUN_ENDPOINT"}},
			&cli.StringFlag{Name: "aliyun_acc_key", Value: "", EnvVars: []string{"ALIYUN_ACC_KEY"}},
			&cli.StringFlag{Name: "aliyun_secret_key", Value: "", EnvVars: []string{"ALIYUN_SECRET_KEY"}},
			&cli.StringFlag{Name: "aliyun_prefix", Value: "marketseed", EnvVars: []string{"ALIYUN_PREFIX"}},
			&cli.BoolFlag{Name: "mongo_flag", Value: false, Usage: "run with mongodb store", EnvVars: []string{"MONGO_FLAG"}},
			&cli.StringFlag{Name: "mongo_uri", Value: "mongodb://localhost:27017", EnvVars: []string{"MONGO_URI"}},

			&cli.StringFlag{Name: "kafka_uri", Value: "127.0.0.1:9092", EnvVars: []string{"KAFKA_URI"}},
			&cli.BoolFlag{Name: "enable_kafka", Value: false, Usage: "publish committed events to kafka", EnvVars: []string{"ENABLE_KAFKA"}},

			&cli.StringFlag{Name: "port", Value: ":8080", EnvVars: []string{"PORT"}},
			&cli.StringFlag{Name: "metrics_port", Value: ":9000", EnvVars: []string{"METRICS_PORT"}},
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

	s := marketseed.New(
		c.String("db_dir"), c.String("mysql"), c.String("sqlite_dir"), c.Bool("use_sqlite"),
		c.String("config_dsn"), c.String("rpc_url"), c.String("operator_key"),
		c.Bool("s3_flag"), c.String("s3_acc_key"), c.String("s3_secret_key"), c.String("s3_prefix"), c.String("s3_region"), c.String("s3_endpoint"),
		c.Bool("use_4ever"), c.Bool("aliyun_flag"), c.String("aliyun_endpoint"), c.String("aliyun_acc_key"), c.String("aliyun_secret_key"), c.String("aliyun_prefix"),
		c.Bool("mongo_flag"), c.String("mongo_uri"),
		c.String("kafka_uri"), c.Bool("enable_kafka"),
	)
	s.Run(c.String("port"))

	common.NewMetricServer(c.String("metrics_port"))

	<-signals
	s.Close()

	return nil
}
