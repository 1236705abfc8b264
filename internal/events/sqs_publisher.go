package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/assistaura/leadchat/internal/leads"
	"github.com/assistaura/leadchat/pkg/logging"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher queues captured leads for downstream CRM workers.
type SQSPublisher struct {
	client   sqsAPI
	queueURL string
	logger   *logging.Logger
	now      func() time.Time
}

func NewSQSPublisher(client sqsAPI, queueURL string, logger *logging.Logger) *SQSPublisher {
	if client == nil {
		panic("events: sqs client cannot be nil")
	}
	if queueURL == "" {
		panic("events: sqs queue url cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *SQSPublisher) Name() string { return "sqs" }

// LeadCaptured sends one LeadCapturedV1 per lead. The event id doubles as the
// deduplication id so FIFO queues drop retried sends.
func (p *SQSPublisher) LeadCaptured(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return nil
	}
	evt := newLeadCapturedV1(lead, p.now())
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventTypeLeadCaptured)},
		},
	}
	if strings.HasSuffix(p.queueURL, ".fifo") {
		in.MessageGroupId = aws.String(lead.ID)
		in.MessageDeduplicationId = aws.String(evt.EventID)
	}

	out, err := p.client.SendMessage(ctx, in)
	if err != nil {
		return fmt.Errorf("events: sqs send: %w", err)
	}
	p.logger.Debug("lead event queued", "lead_id", lead.ID, "event_id", evt.EventID, "message_id", aws.ToString(out.MessageId))
	return nil
}
