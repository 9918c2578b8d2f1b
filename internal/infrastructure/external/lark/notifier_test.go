package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCreator struct {
	req  *larkim.CreateMessageReq
	resp *larkim.CreateMessageResp
	err  error
}

func (m *mockCreator) Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error) {
	m.req = req
	return m.resp, m.err
}

func okResponse() *larkim.CreateMessageResp {
	return &larkim.CreateMessageResp{
		Data: &larkim.CreateMessageRespData{MessageId: larkcore.StringPtr("om_1")},
	}
}

func TestMessageBody(t *testing.T) {
	text := "AV-042 numaralı avans kapanışınız reddedildi. Gerekçe: \"fiş\" eksik"

	body, err := messageBody("u-1", text)
	require.NoError(t, err)
	assert.Equal(t, "u-1", *body.ReceiveId)
	assert.Equal(t, larkim.MsgTypeText, *body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*body.Content), &content))
	assert.Equal(t, text, content["text"])
}

func TestNotifier_Notify(t *testing.T) {
	creator := &mockCreator{resp: okResponse()}
	n := NewNotifierWithCreator(creator, "", zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), "u-1", "Avans kapanışınız onaylandı"))
	assert.NotNil(t, creator.req)
}

func TestNotifier_Failures(t *testing.T) {
	ctx := context.Background()

	n := NewNotifierWithCreator(&mockCreator{resp: okResponse()}, "user_id", zap.NewNop())
	assert.Error(t, n.Notify(ctx, "", "hi"))
	assert.Error(t, n.Notify(ctx, "u-1", ""))

	n = NewNotifierWithCreator(&mockCreator{err: errors.New("network")}, "user_id", zap.NewNop())
	assert.Error(t, n.Notify(ctx, "u-1", "hi"))

	failed := &larkim.CreateMessageResp{CodeError: larkcore.CodeError{Code: 230002, Msg: "bot not in chat"}}
	n = NewNotifierWithCreator(&mockCreator{resp: failed}, "user_id", zap.NewNop())
	err := n.Notify(ctx, "u-1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "230002")
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zap.NewNop()).Notify(context.Background(), "u-1", "hi"))
}
