package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/thirdeyevisualz/studio/internal/config"
	"github.com/thirdeyevisualz/studio/internal/notify"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// BuildDispatcher selects the notification transport from NOTIFY_PROVIDER and
// reports which one it picked. Missing credentials degrade to the stub email sender.
func BuildDispatcher(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.Dispatcher, string) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.NotifyProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return notify.NewEmailDispatcher(sender, logger), "sendgrid"
		}
		logger.Warn("sendgrid selected without api key; using stub email sender")
	case "ses":
		if awsCfg != nil && cfg.SESFromEmail != "" {
			sender := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.SESFromEmail,
				FromName:  cfg.BusinessName,
			}, logger)
			return notify.NewEmailDispatcher(sender, logger), "ses"
		}
		logger.Warn("ses selected without aws config or from address; using stub email sender")
	case "sqs", "queue":
		if awsCfg != nil && cfg.NotifyQueueURL != "" {
			return notify.NewQueueDispatcher(sqs.NewFromConfig(*awsCfg), cfg.NotifyQueueURL), "sqs"
		}
		logger.Warn("queue selected without aws config or queue url; using stub email sender")
	case "stub":
	default:
		return notify.NewAPIDispatcher(notify.APIConfig{
			BaseURL:     cfg.NotificationsAPIURL,
			Path:        cfg.NotificationsPath,
			APIKey:      cfg.NotificationsAPIKey,
			DevFallback: cfg.IsDevelopment(),
		}, logger), "api"
	}
	return notify.NewEmailDispatcher(notify.NewStubEmailSender(logger), logger), "stub"
}

// BusinessProfile is the contact block quoted in notifications.
func BusinessProfile(cfg *appconfig.Config) notify.Business {
	return notify.Business{Name: cfg.BusinessName, Email: cfg.BusinessEmail, Phone: cfg.BusinessPhone}
}
