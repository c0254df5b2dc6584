package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"msgcenter/backend/internal/domain"
	"msgcenter/backend/internal/storage"
)

// ========== Message Repository ==========

// ListByTarget 按发送时间返回投递给指定身份的邮件，不加载附件
func (s *Store) ListByTarget(ctx context.Context, targetID string) ([]domain.Message, error) {
	query := s.rebind(`
		SELECT id, target_id, portal_id, offer_id, subject, sent_at
		FROM messages
		WHERE target_id = ?
		ORDER BY sent_at DESC, id
	`)

	rows, err := s.db.QueryContext(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		var offerID, subject sql.NullString
		if err := rows.Scan(&msg.ID, &msg.TargetID, &msg.PortalID, &offerID, &subject, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.OfferID = offerID.String
		msg.Subject = subject.String
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// GetFull 返回指定门户下的邮件正文及附件
func (s *Store) GetFull(ctx context.Context, portalID int64, messageID string) (*domain.Message, error) {
	query := s.rebind(`
		SELECT id, target_id, portal_id, offer_id, subject, body, sent_at
		FROM messages
		WHERE id = ? AND portal_id = ?
	`)

	var msg domain.Message
	var offerID, subject, body sql.NullString
	err := s.db.QueryRowContext(ctx, query, messageID, portalID).Scan(
		&msg.ID,
		&msg.TargetID,
		&msg.PortalID,
		&offerID,
		&subject,
		&body,
		&msg.SentAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	msg.OfferID = offerID.String
	msg.Subject = subject.String
	msg.Body = body.String

	attachments, err := s.listAttachments(ctx, messageID)
	if err != nil {
		return nil, err
	}
	msg.Attachments = attachments
	return &msg, nil
}

func (s *Store) listAttachments(ctx context.Context, messageID string) ([]domain.AttachmentRef, error) {
	query := s.rebind(`
		SELECT name, download_locator
		FROM message_attachments
		WHERE message_id = ?
		ORDER BY position, id
	`)

	rows, err := s.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []domain.AttachmentRef
	for rows.Next() {
		var att domain.AttachmentRef
		if err := rows.Scan(&att.Name, &att.DownloadLocator); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

// GetMetadata 批量查询项目元数据，未知项目 ID 被跳过
func (s *Store) GetMetadata(ctx context.Context, offerIDs []string) ([]domain.MetadataRecord, error) {
	if len(offerIDs) == 0 {
		return []domain.MetadataRecord{}, nil
	}

	query := s.rebind(`
		SELECT offer_id, offer_name, sponsor_name
		FROM offer_metadata
		WHERE offer_id IN (` + inClause(len(offerIDs)) + `)`)

	args := make([]any, len(offerIDs))
	for i, id := range offerIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query offer metadata: %w", err)
	}
	defer rows.Close()

	records := make([]domain.MetadataRecord, 0, len(offerIDs))
	for rows.Next() {
		var rec domain.MetadataRecord
		var offerName, sponsorName sql.NullString
		if err := rows.Scan(&rec.OfferID, &offerName, &sponsorName); err != nil {
			return nil, fmt.Errorf("scan offer metadata: %w", err)
		}
		rec.OfferName = offerName.String
		rec.SponsorName = sponsorName.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offer metadata: %w", err)
	}
	return records, nil
}
