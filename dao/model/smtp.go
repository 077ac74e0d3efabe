package model

import "gorm.io/gorm"

// SMTPSetting is an admin-editable mail configuration. When no active row
// exists the notifier falls back to the static config file values.
type SMTPSetting struct {
	gorm.Model
	Host      string `gorm:"type:varchar(128);not null"`
	Port      int    `gorm:"not null;default:587"`
	Username  string `gorm:"type:varchar(128);not null"`
	Password  string `gorm:"type:varchar(128);not null"`
	FromEmail string `gorm:"type:varchar(128);not null"`
	FromName  string `gorm:"type:varchar(128)"`
	UseTLS    bool   `gorm:"not null;default:true"`
	IsActive  bool   `gorm:"not null;default:true"`
}
