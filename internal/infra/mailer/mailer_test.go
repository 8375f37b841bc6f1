package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/smeta-bot/internal/domain/estimate"
)

func sampleDoc() estimate.Document {
	return estimate.Document{Number: "3", Date: "2024-01-02", Calculation: estimate.Calculation{GrandTotal: 1000}}
}

func TestMessage(t *testing.T) {
	m := New("smtp.example.com", 587, "", "", "noreply@example.com")
	msg, err := m.Message("client@example.com", "ИП Иванов", sampleDoc(), Attachment{FileName: "smeta-3.pdf", Content: []byte("%PDF-1.3")})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "<client@example.com>")
	assert.Contains(t, raw, "<noreply@example.com>")
	assert.Contains(t, raw, `filename="smeta-3.pdf"`)
}

func TestMessageRejectsRecipient(t *testing.T) {
	m := New("smtp.example.com", 587, "", "", "noreply@example.com")
	_, err := m.Message("not an address", "", sampleDoc(), Attachment{FileName: "a.pdf"})
	assert.ErrorIs(t, err, ErrBadRecipient)
}

func TestSendDisabled(t *testing.T) {
	m := New("", 0, "", "", "")
	assert.False(t, m.Enabled())
	err := m.Send(context.Background(), "a@b.c", "", sampleDoc(), Attachment{})
	assert.ErrorIs(t, err, ErrDisabled)

	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
}
