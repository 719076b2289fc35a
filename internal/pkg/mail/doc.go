// Package mail sends transactional email. The smtp driver speaks net/smtp
// directly and the gomail driver uses gopkg.in/gomail.v2 with STARTTLS; both
// take the same SMTPConfig and are selected by name through New.
package mail
