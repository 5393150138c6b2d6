// Package notification renders and delivers customer and operator
// notifications.
//
// Each Type has embedded subject, plain-text and HTML templates. The
// Dispatcher sends email through an email.EmailSender and SMS through an
// SMSSender, usually CRMSMSSender backed by the CRM conversations API:
//
//	d, err := notification.NewDispatcher(sender,
//	    notification.WithRenderer(notification.MustNewRenderer("Acme Notary")),
//	    notification.WithSMSSender(notification.NewCRMSMSSender(crmClient)),
//	)
//	_, err = d.Send(ctx, notification.Message{
//	    Type:     notification.TypeBookingConfirmation,
//	    Email:    "client@example.com",
//	    Phone:    "+15555550100",
//	    Channels: []notification.Channel{notification.ChannelEmail, notification.ChannelSMS},
//	    Data:     map[string]string{"ServiceName": "Mobile notary", "DateTime": "June 3, 10:00"},
//	})
//
// AlertMailer plugs into the CRM client as a crm.Alerter and emails failures
// whose classification asks for attention.
package notification
