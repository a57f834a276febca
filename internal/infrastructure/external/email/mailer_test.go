package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	From struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"from"`
	Personalizations []struct {
		To []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"to"`
		Subject string `json:"subject"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func newTestMailer(t *testing.T, status int) (*SendgridMailer, *sentMail, *http.Header) {
	t.Helper()
	var (
		got    sentMail
		header http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		header = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(status)
		if status >= http.StatusBadRequest {
			_, _ = w.Write([]byte(`{"errors":[{"message":"invalid"}]}`))
		}
	}))
	t.Cleanup(srv.Close)

	m := NewSendgridMailer(SendgridConfig{
		APIKey:        "SG.test",
		Host:          srv.URL,
		FromName:      "Monitoria",
		FromEmail:     "no-reply@ufba.br",
		SubjectPrefix: "[Monitoria] ",
	}, zap.NewNop())
	return m, &got, &header
}

func TestSendgridMailer_Send(t *testing.T) {
	m, got, header := newTestMailer(t, http.StatusAccepted)

	err := m.Send(context.Background(), &port.EmailMessage{
		To:      "marcos@ufba.br",
		ToName:  "Marcos",
		Subject: "Projeto aprovado",
		Body:    "Seu projeto foi aprovado.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.test", header.Get("Authorization"))
	assert.Equal(t, "no-reply@ufba.br", got.From.Email)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "[Monitoria] Projeto aprovado", got.Personalizations[0].Subject)
	require.Len(t, got.Personalizations[0].To, 1)
	assert.Equal(t, "marcos@ufba.br", got.Personalizations[0].To[0].Email)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "Seu projeto foi aprovado.", got.Content[0].Value)
}

func TestSendgridMailer_Rejected(t *testing.T) {
	m, _, _ := newTestMailer(t, http.StatusBadRequest)

	err := m.Send(context.Background(), &port.EmailMessage{To: "x@ufba.br", Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSendgridMailer_Validation(t *testing.T) {
	m, _, _ := newTestMailer(t, http.StatusAccepted)

	assert.Error(t, m.Send(context.Background(), &port.EmailMessage{Subject: "no recipient"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, &port.EmailMessage{To: "x@ufba.br"}), context.Canceled)
}

func TestLogMailer_Send(t *testing.T) {
	m := NewLogMailer(zap.NewNop())
	assert.NoError(t, m.Send(context.Background(), &port.EmailMessage{To: "x@ufba.br", Subject: "s"}))
}
