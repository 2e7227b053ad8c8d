package emailsvc

import (
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vishvavidya/traininghub/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridService struct {
	envelope
	key    string
	logger core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(logger core.Logger) *sendgridService {
	return &sendgridService{
		envelope: newEnvelope(core.Conf),
		key:      core.Conf.SendgridAPIKey,
		logger:   logger,
	}
}

// SendMessages delivers each message on its own goroutine. Failures are logged, never returned.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			ok, err := prepare(msg)
			if err != nil {
				svc.logger.Error("preparing email", err)
				return
			}
			if !ok {
				return
			}
			if err := svc.send(svc.build(*msg)); err != nil {
				svc.logger.Error("sending email", err, map[string]interface{}{
					"template": msg.TemplateName,
					"to":       len(msg.To),
				})
			}
		}(msg)
	}
}

// build gives every To address its own personalization, so students moved together in a bulk
// operation do not see one another's addresses. Cc recipients ride on the first one only.
func (svc *sendgridService) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(sgEmail(svc.sender(msg)))
	if msg.TemplateName != "" {
		m.AddCategories(msg.TemplateName)
	}

	subject := svc.subject(msg)
	for i, to := range msg.To {
		p := sgmail.NewPersonalization()
		p.Subject = subject
		p.AddTos(sgEmail(to))
		if i == 0 {
			for _, cc := range msg.Cc {
				if cc.Address != to.Address {
					p.AddCCs(sgEmail(cc))
				}
			}
		}
		m.AddPersonalizations(p)
	}

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (svc *sendgridService) send(m *sgmail.SGMailV3) error {
	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestRetry(req)
	if err != nil {
		return errors.Wrap(err, "calling sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
