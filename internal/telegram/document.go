package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// document is an inbound attachment. Nothing is downloaded until Fetch.
type document struct {
	client *Client
	fileID string
	name   string
	size   int
}

func newDocument(client *Client, doc *tgbotapi.Document) *document {
	return &document{client: client, fileID: doc.FileID, name: doc.FileName, size: doc.FileSize}
}

func (d *document) FileName() string { return d.name }

func (d *document) Fetch(ctx context.Context, dst string) error {
	if d.size > maxDownloadBytes {
		return fmt.Errorf("file is %d MB; bots can only download files up to %d MB",
			d.size/(1024*1024), maxDownloadBytes/(1024*1024))
	}
	return d.client.download(ctx, d.fileID, dst)
}
