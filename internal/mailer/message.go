package mailer

import (
	"fmt"
	"time"
)

const longDate = "January 2, 2006"

// Invitation builds the email sent to an invitee, both when the invite is
// first issued and when the trip itself is confirmed. confirmURL points at
// the participant confirmation endpoint and may be visited more than once.
func Invitation(name, email, destination string, startAt, endAt time.Time, confirmURL string) Message {
	start := startAt.Format(longDate)
	end := endAt.Format(longDate)

	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: fmt.Sprintf("Confirm your presence on the trip to %s on %s", destination, start),
		HTML: fmt.Sprintf(`
<div style="font-family: sans-serif; font-size: 16px; line-height: 1.6;">
  <p>You have been invited to join a trip to <strong>%s</strong> from <strong>%s</strong> until <strong>%s</strong>.</p>
  <p></p>
  <p>To confirm your presence on the trip, click the link below:</p>
  <p></p>
  <p>
    <a href="%s">Confirm trip</a>
  </p>
  <p></p>
  <p>If you do not know what this email is about, just ignore it.</p>
</div>`, destination, start, end, confirmURL),
	}
}
