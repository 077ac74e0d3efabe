package notify

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"

	"github.com/trackforge/defecttrack/dao/model"
	"github.com/trackforge/defecttrack/pkg/config"
)

// MailSender delivers messages over SMTP with gomail. The connection
// settings come from the admin-editable smtp_settings row when one is
// active, falling back to the static config file.
type MailSender struct {
	db *gorm.DB
}

func NewMailSender(db *gorm.DB) *MailSender {
	return &MailSender{db: db}
}

type smtpParams struct {
	host     string
	port     int
	user     string
	password string
	from     string
	fromName string
}

func (m *MailSender) params(ctx context.Context) (smtpParams, error) {
	var setting model.SMTPSetting
	err := m.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id DESC").
		First(&setting).Error
	if err == nil {
		return smtpParams{
			host:     setting.Host,
			port:     setting.Port,
			user:     setting.Username,
			password: setting.Password,
			from:     setting.FromEmail,
			fromName: setting.FromName,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return smtpParams{}, err
	}

	c := config.GetConfig()
	if c.SMTP.Host == "" {
		return smtpParams{}, errors.New("no smtp configuration available")
	}
	return smtpParams{
		host:     c.SMTP.Host,
		port:     c.SMTP.Port,
		user:     c.SMTP.User,
		password: c.SMTP.Password,
		from:     c.SMTP.From,
		fromName: c.SMTP.FromName,
	}, nil
}

func (m *MailSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	p, err := m.params(ctx)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	if p.fromName != "" {
		msg.SetAddressHeader("From", p.from, p.fromName)
	} else {
		msg.SetHeader("From", p.from)
	}
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(p.host, p.port, p.user, p.password)
	return dialer.DialAndSend(msg)
}
