// Package crm is the outbound client for the CRM API.
//
// Every call goes through Client.Do, which classifies failures with Classify
// and retries retryable ones with exponential backoff:
//
//	delay(n) = min(BaseDelay * 2^(n-1), MaxDelay)
//
// for up to MaxRetries retries after the first attempt. Validation,
// authentication and not-found responses return immediately. Network errors
// are retried like server errors. Do never panics; the outcome is a Result
// whose Err is an *APIError carrying the last Classification.
//
// Classifications with ShouldAlert set are passed to an Alerter (LogAlerter
// by default). Alerting is a side channel and does not affect retries.
//
// Typed helpers cover the operations the job processors need: UpsertContact,
// AddContactTags, CreateAppointment and SendSMS. CreateAppointment is keyed
// through the idempotency package and sends the key as Idempotency-Key.
package crm
