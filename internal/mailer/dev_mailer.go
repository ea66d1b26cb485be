package mailer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
	"github.com/google/uuid"
)

// DevMailer prints messages instead of delivering them.
type DevMailer struct {
	out io.Writer
}

func NewDevMailer() *DevMailer {
	return &DevMailer{out: os.Stdout}
}

func (d *DevMailer) Enabled() bool {
	return true
}

func (d *DevMailer) Send(ctx context.Context, msg *Message) (string, error) {
	id := "dev-" + uuid.NewString()
	logger.InfoContext(ctx, "📧 [DEV MAIL]",
		"to", logger.MaskEmail(msg.ToEmail),
		"subject", msg.Subject,
		"message_id", id,
	)

	fmt.Fprintf(d.out, "\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s <%s>\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		msg.ToName, msg.ToEmail, msg.Subject, msg.Text)

	return id, nil
}
