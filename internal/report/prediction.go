package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"

	"maternal-risk/internal/prediction"
)

// PredictionReport renders one saved record as a single-page PDF.
func (r *Renderer) PredictionReport(rec prediction.Record) ([]byte, error) {
	pdf, err := r.newDocument(gopdf.PageSizeA4)
	if err != nil {
		return nil, err
	}

	if err := setFont(pdf, 20); err != nil {
		return nil, err
	}
	pdf.SetXY(50, 50)
	pdf.Cell(nil, "Maternal Health Risk Prediction")
	pdf.Br(35)

	if err := setFont(pdf, 12); err != nil {
		return nil, err
	}
	pdf.SetX(50)
	pdf.Cell(nil, "Date: "+displayDate(rec.Date))
	pdf.Br(15)
	if rec.ID != "" {
		pdf.SetX(50)
		pdf.Cell(nil, "Record: "+rec.ID)
		pdf.Br(15)
	}
	pdf.Br(15)

	if err := setFont(pdf, 14); err != nil {
		return nil, err
	}
	pdf.SetX(50)
	pdf.Cell(nil, "Input data:")
	pdf.Br(20)

	if err := setFont(pdf, 11); err != nil {
		return nil, err
	}
	for _, b := range prediction.InputBounds {
		v, ok := rec.InputData[b.Field]
		if !ok {
			continue
		}
		pdf.SetX(60)
		pdf.Cell(&gopdf.Rect{W: 140, H: 14}, b.Field)
		pdf.Cell(nil, strconv.FormatFloat(v, 'f', -1, 64))
		pdf.Br(16)
	}
	pdf.Br(15)

	if err := setFont(pdf, 14); err != nil {
		return nil, err
	}
	pdf.SetX(50)
	pdf.Cell(nil, fmt.Sprintf("Predicted RiskLevel: %s (%d)", rec.Prediction, rec.PredictionValue))

	return finish(pdf)
}

func displayDate(date string) string {
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006 15:04 MST")
}

// TelegramClient is the subset of the Bot API the journal uses.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName, caption string) error
}

// JournalNotifier posts every saved prediction to a Telegram chat, as a PDF
// when a renderer is available and as plain text otherwise.
type JournalNotifier struct {
	renderer *Renderer
	tg       TelegramClient
	chatID   int64
	logger   *zap.Logger
}

func NewJournalNotifier(renderer *Renderer, tg TelegramClient, chatID int64, logger *zap.Logger) *JournalNotifier {
	return &JournalNotifier{renderer: renderer, tg: tg, chatID: chatID, logger: logger}
}

func (n *JournalNotifier) NotifySaved(ctx context.Context, rec prediction.Record) error {
	caption := fmt.Sprintf("Prediction saved: %s (record %s)", rec.Prediction, rec.ID)

	if n.renderer == nil {
		return n.tg.SendMessage(ctx, n.chatID, caption)
	}

	doc, err := n.renderer.PredictionReport(rec)
	if err != nil {
		n.logger.Warn("failed to render prediction report, sending text", zap.Error(err))
		return n.tg.SendMessage(ctx, n.chatID, caption)
	}

	fileName := fmt.Sprintf("prediction_%s.pdf", rec.ID)
	if err := n.tg.SendDocument(ctx, n.chatID, doc, fileName, caption); err != nil {
		return err
	}
	n.logger.Debug("prediction report sent", zap.Int64("chat_id", n.chatID), zap.String("record", rec.ID))
	return nil
}
