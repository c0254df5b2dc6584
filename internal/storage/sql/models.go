package sql

import "time"

// 以下模型仅用于 GORM 自动迁移，读写走 database/sql

type identityModel struct {
	ID             string `gorm:"primaryKey;size:36"`
	Role           string `gorm:"size:16;not null;default:regular"`
	OrganizationID int64  `gorm:"not null;default:0;index"`
	Email          string `gorm:"size:255;not null;default:''"`
	FirstName      string `gorm:"size:128;not null;default:''"`
	LastName       string `gorm:"size:128;not null;default:''"`
	IsStaff        bool   `gorm:"not null;default:false"`
	IsSuperuser    bool   `gorm:"not null;default:false"`
	IsEmployee     bool   `gorm:"not null;default:false"`
}

func (identityModel) TableName() string { return "identities" }

type portalModel struct {
	ID      int64  `gorm:"primaryKey;autoIncrement:false"`
	Name    string `gorm:"size:255;not null"`
	BaseURL string `gorm:"size:512"`
}

func (portalModel) TableName() string { return "portals" }

type messageModel struct {
	ID       string    `gorm:"primaryKey;size:64"`
	TargetID string    `gorm:"size:36;not null;index:idx_messages_target"`
	PortalID int64     `gorm:"not null;index"`
	OfferID  string    `gorm:"size:64"`
	Subject  string    `gorm:"size:512;not null;default:''"`
	Body     string    `gorm:"type:text;not null"`
	SentAt   time.Time `gorm:"not null;index:idx_messages_target"`
}

func (messageModel) TableName() string { return "messages" }

type attachmentModel struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	MessageID       string `gorm:"size:64;not null;index"`
	Position        int    `gorm:"not null;default:0"`
	Name            string `gorm:"size:255;not null"`
	DownloadLocator string `gorm:"size:1024;not null"`
}

func (attachmentModel) TableName() string { return "message_attachments" }

type offerMetadataModel struct {
	OfferID     string `gorm:"primaryKey;size:64"`
	OfferName   string `gorm:"size:255"`
	SponsorName string `gorm:"size:255"`
}

func (offerMetadataModel) TableName() string { return "offer_metadata" }

type tokenModel struct {
	Token     string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"size:36;not null;index"`
	TokenType string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (tokenModel) TableName() string { return "tokens" }
