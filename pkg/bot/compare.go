package bot

import (
	"context"
	"fmt"
	"strings"

	"f1lapcompare/pkg/compare"
	"f1lapcompare/pkg/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Comparer runs the comparisons requested by the users.
type Comparer interface {
	Compare(ctx context.Context, kind compare.Kind, year int, gp string, st model.SessionType, d1, d2 string, lapNumber int) (*compare.Report, error)
}

// CompareApp answers /compare, /fastest and /race with the figures and the
// lap time table.
type CompareApp struct {
	bot      Sender
	comparer Comparer
	l        *zap.Logger
}

func NewCompareApp(bot Sender, comparer Comparer, l *zap.Logger) *CompareApp {
	return &CompareApp{bot: bot, comparer: comparer, l: l}
}

func (ca *CompareApp) AcceptCommand(command string) (bool, Handler) {
	for _, kind := range []compare.Kind{compare.KindLaps, compare.KindFastest, compare.KindRace} {
		if command == "/"+commandOf(kind) {
			return true, ca.renderComparison(kind)
		}
	}
	return false, nil
}

func (ca *CompareApp) AcceptButton(button string) (bool, Handler) {
	return false, nil
}

func (ca *CompareApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, CallbackHandler) {
	return false, nil
}

func (ca *CompareApp) renderComparison(kind compare.Kind) Handler {
	return func(ctx context.Context, req Request) error {
		args, err := ParseCompareArgs(kind, req.Args)
		if err != nil {
			return ca.sendText(req.ChatID, err.Error())
		}
		report, err := ca.comparer.Compare(ctx, args.Kind, args.Year, args.GP, args.Session, args.D1, args.D2, args.Lap)
		if err != nil {
			ca.l.Info("comparison failed", zap.String("user", req.User.Name), zap.Error(err))
			return ca.sendText(req.ChatID, fmt.Sprintf("Comparison failed: %s", err))
		}

		for i, f := range report.Files {
			photo := tgbotapi.NewPhoto(req.ChatID, tgbotapi.FilePath(f.Path))
			if i == 0 {
				photo.Caption = report.Title
			}
			if _, err := ca.bot.Send(photo); err != nil {
				return err
			}
		}
		msg := tgbotapi.NewMessage(req.ChatID, fmt.Sprintf("```\n%s\n\n%s```", escapeCode(report.Summary()), escapeCode(report.Table())))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		_, err = ca.bot.Send(msg)
		return err
	}
}

func (ca *CompareApp) sendText(chatID int64, text string) error {
	_, err := ca.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// escapeCode escapes the characters MarkdownV2 reserves inside code blocks.
func escapeCode(s string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(s)
}
