// cmd/notifier consumes portal notifications from RabbitMQ and emails the
// families involved through SendGrid.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shivanand-hulikatti/school-portal/internal/config"
	"github.com/Shivanand-hulikatti/school-portal/internal/logger"
	"github.com/Shivanand-hulikatti/school-portal/internal/notify"
)

func main() {
	var log logger.Logger = logger.NewStd(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", err, nil)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" || cfg.SendGridAPIKey == "" {
		log.Info("notifier needs AMQP_URL and SENDGRID_API_KEY", nil)
		os.Exit(1)
	}
	if cfg.RollbarToken != "" {
		host, _ := os.Hostname()
		rb := logger.NewRollbar(log, logger.RollbarOptions{
			Token:       cfg.RollbarToken,
			Environment: cfg.Env,
			ServerHost:  host,
			CodeVersion: cfg.Build,
		})
		defer rb.Close()
		log = rb
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker, err := notify.Dial(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Error("connect to rabbitmq", err, nil)
		os.Exit(1)
	}
	defer broker.Close()

	mailer := notify.NewMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
	log.Info("notifier consuming", logger.Fields{"queue": cfg.AMQPQueue, "exchange": cfg.AMQPExchange})
	if err := broker.Consume(ctx, cfg.AMQPQueue, log, mailer.Handle); err != nil {
		log.Error("consume notifications", err, logger.Fields{"queue": cfg.AMQPQueue})
		stop()
		os.Exit(1)
	}
	log.Info("notifier stopped", nil)
}
