package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/metrics"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
)

// Notifier tells applicants about review decisions. Delivery is best effort: callers log
// failures and carry on.
type Notifier interface {
	TherapistApplicationReviewed(ctx context.Context, app *models.TherapistApplication) error
	ClinicApplicationReviewed(ctx context.Context, app *models.ClinicApplication) error
}

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESNotifier struct {
	client    SESService
	fromEmail string
}

func NewSESNotifier(ctx context.Context, region, fromEmail string) (*SESNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESNotifier{client: ses.NewFromConfig(cfg), fromEmail: fromEmail}, nil
}

func NewSESNotifierWithClient(client SESService, fromEmail string) *SESNotifier {
	return &SESNotifier{client: client, fromEmail: fromEmail}
}

func (n *SESNotifier) TherapistApplicationReviewed(ctx context.Context, app *models.TherapistApplication) error {
	subject, body := therapistDecisionEmail(app)
	return n.send(ctx, app.Email, subject, body)
}

func (n *SESNotifier) ClinicApplicationReviewed(ctx context.Context, app *models.ClinicApplication) error {
	subject, body := clinicDecisionEmail(app)
	return n.send(ctx, app.ContactEmail, subject, body)
}

func (n *SESNotifier) send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient address")
	}
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	return err
}

func therapistDecisionEmail(app *models.TherapistApplication) (subject, body string) {
	if app.Status == models.TherapistApproved {
		return "Your Mindful Kids application was approved",
			fmt.Sprintf("Hi %s,\n\nYour professional profile is now verified and listed in the Mindful Kids directory.\n", app.ProfessionalName)
	}
	reason := "No reason was given."
	if app.RejectionReason != nil {
		reason = "Reason: " + *app.RejectionReason
	}
	return "Your Mindful Kids application was not approved",
		fmt.Sprintf("Hi %s,\n\nWe could not approve your application.\n%s\n\nYou can update your details and submit again from the app.\n", app.ProfessionalName, reason)
}

func clinicDecisionEmail(app *models.ClinicApplication) (subject, body string) {
	if app.Status == models.ClinicApproved && app.InviteLink != nil {
		return "Your clinic was approved on Mindful Kids",
			fmt.Sprintf("Hello %s,\n\nYour clinic is verified. Set up your administrator account with this one-time link:\n%s\n", app.ClinicName, *app.InviteLink)
	}
	reason := "No reason was given."
	if app.RejectionReason != nil {
		reason = "Reason: " + *app.RejectionReason
	}
	return "Your clinic application on Mindful Kids",
		fmt.Sprintf("Hello %s,\n\nWe could not approve your clinic application.\n%s\n", app.ClinicName, reason)
}

// LogNotifier stands in when SES is not configured.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) TherapistApplicationReviewed(_ context.Context, app *models.TherapistApplication) error {
	n.log.Info("therapist application decision (email disabled)", map[string]interface{}{
		"application_id": app.ID,
		"status":         app.Status,
	})
	return nil
}

func (n *LogNotifier) ClinicApplicationReviewed(_ context.Context, app *models.ClinicApplication) error {
	n.log.Info("clinic application decision (email disabled)", map[string]interface{}{
		"application_id": app.ID,
		"status":         app.Status,
	})
	return nil
}

// notify runs a notification and swallows its error after logging it.
func notify(log logger.Logger, kind string, send func() error) {
	if err := send(); err != nil {
		metrics.NotificationsFailed.WithLabelValues(kind).Inc()
		log.WithError(err).Warn("decision e-mail not sent", map[string]interface{}{"kind": kind})
	}
}
