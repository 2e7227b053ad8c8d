package emailsvc

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// Sent returns a copy of the messages delivered so far.
func Sent() []core.EmailMessage {
	mu.Lock()
	defer mu.Unlock()
	return append([]core.EmailMessage(nil), SentMessages...)
}

func ResetSent() {
	mu.Lock()
	SentMessages = make([]core.EmailMessage, 0)
	mu.Unlock()
}

func record(msg core.EmailMessage) {
	mu.Lock()
	SentMessages = append(SentMessages, msg)
	mu.Unlock()
}

// consoleService prints MIME messages instead of delivering them. Every delivered message is
// recorded and can be inspected with Sent.
type consoleService struct {
	envelope
	out  *log.Logger // nil disables printing
	sync bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() core.EmailService {
	return &consoleService{
		envelope: newEnvelope(core.Conf),
		out:      log.New(os.Stdout, "", log.LstdFlags),
	}
}

// NewConsoleServiceMock returns a silent console service that sends synchronously, so callers
// can assert on Sent as soon as SendMessages returns.
func NewConsoleServiceMock() core.EmailService {
	return &consoleService{envelope: newEnvelope(core.Conf), sync: true}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if svc.sync {
			svc.deliver(msg)
		} else {
			go svc.deliver(msg)
		}
	}
}

func (svc *consoleService) deliver(msg *core.EmailMessage) {
	ok, err := prepare(msg)
	if err != nil {
		log.Printf("%+v", err)
		return
	}
	if !ok {
		return
	}
	if svc.out != nil {
		body := new(strings.Builder)
		if err := svc.write(body, *msg); err != nil {
			log.Printf("%+v", err)
			return
		}
		svc.out.Println(body.String())
	}
	record(*msg)
}

func (svc *consoleService) write(w io.Writer, msg core.EmailMessage) error {
	from := svc.sender(msg)
	_, _ = fmt.Fprintf(w, "From: %s\r\n", from.String())
	_, _ = fmt.Fprintf(w, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		_, _ = fmt.Fprintf(w, "Cc: %s\r\n", joinAddresses(msg.Cc))
	}
	_, _ = fmt.Fprintf(w, "Subject: %s\r\n", svc.subject(msg))
	_, _ = fmt.Fprintf(w, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprint(w, "MIME-Version: 1.0\r\n")

	parts := multipart.NewWriter(w)
	_, _ = fmt.Fprintf(w, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", parts.Boundary())

	contents := []struct{ typ, body string }{{"text/plain", msg.TextContent}, {"text/html", msg.HTMLContent}}
	for _, c := range contents {
		if c.body == "" {
			continue
		}
		pw, err := parts.CreatePart(textproto.MIMEHeader{"Content-Type": {c.typ + "; charset=utf-8"}})
		if err != nil {
			return errors.Wrapf(err, "creating %s part", c.typ)
		}
		_, _ = fmt.Fprintf(pw, "%s\r\n", c.body)
	}
	return errors.Wrap(parts.Close(), "closing multipart body")
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
