package domain

import "time"

// AttachmentRef 邮件附件引用
type AttachmentRef struct {
	Name            string `json:"name"`
	DownloadLocator string `json:"downloadLocator"`
}

// Message 表示投递给投资人的一封站内信（含附件引用）
type Message struct {
	ID          string          `json:"id"`
	TargetID    string          `json:"targetId"`          // 收件人身份 ID
	PortalID    int64           `json:"portalId"`          // 收件人所属门户
	OfferID     string          `json:"offerId,omitempty"` // 关联的项目 ID，可能为空
	Subject     string          `json:"subject"`
	Body        string          `json:"body,omitempty"`
	SentAt      time.Time       `json:"sentAt"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// HasOffer 判断邮件是否关联了项目
func (m Message) HasOffer() bool {
	return m.OfferID != ""
}

// MetadataRecord 项目维度的邮件元数据
type MetadataRecord struct {
	OfferID     string `json:"offerId"`
	OfferName   string `json:"offerName"`
	SponsorName string `json:"sponsorName"`
}

// MessageMetadata 邮件列表中的单条元数据视图
type MessageMetadata struct {
	MessageID   string    `json:"messageId"`
	Subject     string    `json:"subject"`
	SentAt      time.Time `json:"sentAt"`
	OfferID     string    `json:"offerId,omitempty"`
	OfferName   string    `json:"offerName,omitempty"`
	SponsorName string    `json:"sponsorName,omitempty"`
}

// NewMessageMetadata 将邮件与已获取的元数据记录关联
//
// records 以 OfferID 为键；邮件未关联项目或找不到对应记录时，项目字段留空。
func NewMessageMetadata(msg Message, records map[string]MetadataRecord) MessageMetadata {
	view := MessageMetadata{
		MessageID: msg.ID,
		Subject:   msg.Subject,
		SentAt:    msg.SentAt,
	}
	if !msg.HasOffer() {
		return view
	}
	view.OfferID = msg.OfferID
	if rec, ok := records[msg.OfferID]; ok {
		view.OfferName = rec.OfferName
		view.SponsorName = rec.SponsorName
	}
	return view
}

// DocumentLink 针对具体调用方解析后的附件下载链接
type DocumentLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AssembledContent 单次请求临时构造的邮件正文响应，不落库
type AssembledContent struct {
	Body          string         `json:"body"`
	BaseURL       string         `json:"baseUrl"`
	DocumentLinks []DocumentLink `json:"documentLinks"`
}

// RecipientContext 解析基础 URL 所需的收件方上下文
type RecipientContext struct {
	OrganizationID int64
}
