package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"rulebook/internal/config"
	"rulebook/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	ownerEmail  string
}

// NewSESNotifier creates an SES-backed Notifier that emails the rulebook
// owner.
func NewSESNotifier(cfg *config.NotifyConfig) (port.Notifier, error) {
	if cfg.OwnerEmail == "" {
		return nil, fmt.Errorf("ses notifier requires notify.owner_email")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesNotifier{
		client:      sesv2.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		ownerEmail:  cfg.OwnerEmail,
	}, nil
}

func (s *sesNotifier) NotifyMissingPerson(ctx context.Context, entryKey, personName string) error {
	subject := fmt.Sprintf("Add person: %s", personName)
	textBody := fmt.Sprintf(
		"Your rulebook (%s) mentions a person named %q who is not yet defined in the person registry.\n\n"+
			"To add this person, open your smart home settings, go to People, and choose 'Add Person'.\n",
		entryKey, personName)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.ownerEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending missing-person email: %w", err)
	}
	return nil
}
