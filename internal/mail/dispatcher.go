package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	apperrors "github.com/inboxkit/inboxkit/internal/errors"
)

// OutboundEmail is a composed message ready for hand-off to the
// transmission provider. MessageID is the internal message identifier;
// it rides along as a provider tag so delivery callbacks can be
// correlated back.
type OutboundEmail struct {
	MessageID uint
	From      string
	FromName  string
	To        []string
	Cc        []string
	Bcc       []string
	Subject   string
	Text      string
	HTML      string
}

// Dispatcher hands a composed message to the transmission provider and
// returns the provider's assigned message identifier.
type Dispatcher interface {
	Send(ctx context.Context, email *OutboundEmail) (string, error)
}

// DispatcherConfig holds the provider client configuration. Clients
// are constructed explicitly at process start and injected; there is
// no ambient package-level client.
type DispatcherConfig struct {
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	ConfigurationSet string
	Timeout          time.Duration
}

// SESDispatcher implements Dispatcher against SES.
type SESDispatcher struct {
	client           *sesv2.Client
	configurationSet string
	timeout          time.Duration
	logger           *slog.Logger
}

// NewSESDispatcher constructs a dispatcher with its own provider
// client. Static credentials are used when configured, otherwise the
// default provider chain applies.
func NewSESDispatcher(ctx context.Context, cfg DispatcherConfig, logger *slog.Logger) (*SESDispatcher, error) {
	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		optFns = append(optFns, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load provider config: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SESDispatcher{
		client:           sesv2.NewFromConfig(awsCfg),
		configurationSet: cfg.ConfigurationSet,
		timeout:          timeout,
		logger:           logger,
	}, nil
}

// Send transmits the email and returns the provider message id. On
// provider failure it returns ErrDispatchFailed; the caller decides
// what to do with the already-persisted message row.
func (d *SESDispatcher) Send(ctx context.Context, email *OutboundEmail) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	source := email.From
	if email.FromName != "" {
		source = fmt.Sprintf("%s <%s>", email.FromName, email.From)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(source),
		Destination: &types.Destination{
			ToAddresses:  email.To,
			CcAddresses:  email.Cc,
			BccAddresses: email.Bcc,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(email.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(email.Text),
						Charset: aws.String("UTF-8"),
					},
					Html: &types.Content{
						Data:    aws.String(email.HTML),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{
				Name:  aws.String(correlationTag),
				Value: aws.String(strconv.FormatUint(uint64(email.MessageID), 10)),
			},
		},
	}
	if d.configurationSet != "" {
		input.ConfigurationSetName = aws.String(d.configurationSet)
	}

	out, err := d.client.SendEmail(ctx, input)
	if err != nil {
		if d.logger != nil {
			d.logger.Error("provider rejected send",
				slog.Uint64("message_id", uint64(email.MessageID)),
				slog.String("error", err.Error()),
			)
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrDispatchFailed, err)
	}

	externalID := aws.ToString(out.MessageId)
	if d.logger != nil {
		d.logger.Info("message dispatched",
			slog.Uint64("message_id", uint64(email.MessageID)),
			slog.String("external_message_id", externalID),
		)
	}
	return externalID, nil
}
