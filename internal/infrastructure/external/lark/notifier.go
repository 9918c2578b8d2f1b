package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
)

// DefaultReceiveIDType matches the backend's requester ids
const DefaultReceiveIDType = "user_id"

// MessageCreator is the Lark IM call the notifier makes
type MessageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Notifier implements port.Notifier with Lark text messages
type Notifier struct {
	messages      MessageCreator
	receiveIDType string
	logger        *zap.Logger
}

// NewNotifier creates a notifier over an SDK client
func NewNotifier(client *lark.Client, receiveIDType string, logger *zap.Logger) *Notifier {
	return NewNotifierWithCreator(client.Im.Message, receiveIDType, logger)
}

// NewNotifierWithCreator creates a notifier over any MessageCreator
func NewNotifierWithCreator(messages MessageCreator, receiveIDType string, logger *zap.Logger) *Notifier {
	if receiveIDType == "" {
		receiveIDType = DefaultReceiveIDType
	}
	return &Notifier{messages: messages, receiveIDType: receiveIDType, logger: logger}
}

var _ port.Notifier = (*Notifier)(nil)

// Notify sends text to recipientID
func (n *Notifier) Notify(ctx context.Context, recipientID, text string) error {
	if recipientID == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	body, err := messageBody(recipientID, text)
	if err != nil {
		return err
	}
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(n.receiveIDType).
		Body(body).
		Build()

	resp, err := n.messages.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message", zap.String("receive_id", recipientID), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("receive_id", recipientID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	n.logger.Info("Message sent", zap.String("message_id", messageID), zap.String("receive_id", recipientID))
	return nil
}

// messageBody builds a text message for recipientID
func messageBody(recipientID, text string) (*larkim.CreateMessageReqBody, error) {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return larkim.NewCreateMessageReqBodyBuilder().
		ReceiveId(recipientID).
		MsgType(larkim.MsgTypeText).
		Content(string(content)).
		Build(), nil
}

// LogNotifier writes messages to the log; used when Lark is disabled
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements port.Notifier
func (n *LogNotifier) Notify(ctx context.Context, recipientID, text string) error {
	n.logger.Info("Notification (lark disabled)", zap.String("recipient", recipientID), zap.String("text", text))
	return nil
}
