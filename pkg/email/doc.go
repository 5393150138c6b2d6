// Package email sends transactional email through a provider-agnostic
// EmailSender.
//
// Two implementations are provided:
//   - the Postmark client (NewPostmarkClient) for production delivery
//   - DevSender, which writes every message to a directory as HTML plus JSON
//
// New picks Postmark when both tokens are configured and DevSender otherwise:
//
//	sender, err := email.New(cfg)
//	if err != nil {
//	    return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "client@example.com",
//	    Subject:  "Your booking is confirmed",
//	    BodyHTML: html,
//	    BodyText: text,
//	    Tag:      "BOOKING_CONFIRMED",
//	})
//
// Parameters are validated before any provider call. Validation failures wrap
// ErrInvalidParams and delivery failures wrap ErrFailedToSendEmail.
package email
