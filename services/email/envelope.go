// Package emailsvc delivers rendered core.EmailMessage values through SendGrid or to the console.
package emailsvc

import (
	"net/mail"

	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
)

// envelope holds the sender and subject settings shared by every delivery backend.
type envelope struct {
	from       mail.Address
	subjPrefix string
}

func newEnvelope(conf *core.Config) envelope {
	return envelope{
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

// sender is the staff member who triggered the message, falling back to the institute address.
func (e envelope) sender(msg core.EmailMessage) mail.Address {
	if msg.From != nil && msg.From.Address != "" {
		return *msg.From
	}
	return e.from
}

func (e envelope) subject(msg core.EmailMessage) string {
	return e.subjPrefix + msg.Subject
}

// prepare renders msg and reports whether it has anyone to go to and anything to say.
func prepare(msg *core.EmailMessage) (bool, error) {
	if err := msg.Render(); err != nil {
		return false, errors.Wrapf(err, "rendering %q email", msg.TemplateName)
	}
	return msg.HasRecipients() && msg.HasContent(), nil
}
