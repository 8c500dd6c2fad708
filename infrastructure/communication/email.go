package communication

import (
	"bytes"
	"context"
	"fmt"
	"mime/quotedprintable"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type EmailInfo struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// SendEmail delivers a plain-text message via SES.
func SendEmail(ctx context.Context, info *EmailInfo) error {
	emailRaw, err := BuildEmailBuffer(info)
	if err != nil {
		return err
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	client := ses.NewFromConfig(cfg)

	_, err = client.SendRawEmail(
		ctx,
		&ses.SendRawEmailInput{
			RawMessage: &types.RawMessage{
				Data: emailRaw.Bytes(),
			},
		},
	)
	return err
}

func BuildEmailBuffer(info *EmailInfo) (*bytes.Buffer, error) {
	if info.From == "" || len(info.To) == 0 {
		return nil, fmt.Errorf("email requires from and to addresses")
	}

	var emailRaw bytes.Buffer

	headers := fmt.Sprintf("From: %s\r\n", info.From)
	headers += fmt.Sprintf("To: %s\r\n", strings.Join(info.To, ", "))
	headers += fmt.Sprintf("Subject: %s\r\n", info.Subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/plain; charset=UTF-8\r\n"
	headers += "Content-Transfer-Encoding: quoted-printable\r\n"
	headers += "\r\n"
	emailRaw.WriteString(headers)

	qp := quotedprintable.NewWriter(&emailRaw)
	if _, err := qp.Write([]byte(info.Text)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	return &emailRaw, nil
}
