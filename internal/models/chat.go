package models

import (
	"time"

	"github.com/google/uuid"
)

// Message представляет зашифрованное сообщение в переписке.
// Открытый текст никогда не сохраняется: только шифртекст и nonce.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	ReceiverID     uuid.UUID  `json:"receiver_id"`
	ContentEnc     string     `json:"content_enc,omitempty"`
	IV             string     `json:"iv,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	ReportFlagged  bool       `json:"report_flagged"`
	ReportReason   string     `json:"report_reason,omitempty"`
	ReportBy       *uuid.UUID `json:"report_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Дополнительные поля для API
	Decrypted string    `json:"text,omitempty"`
	Sender    *UserInfo `json:"sender,omitempty"`
}
