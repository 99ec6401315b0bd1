// Package notifier delivers the daily digest.
//
// The SMS notifier mails each digest chunk to a carrier's email-to-SMS gateway
// address (for example 2025550123@tmomail.net) through an SMTP relay. The dry-run
// notifier prints the messages instead of sending them.
package notifier
