package notification

import (
	"fmt"
	"strings"
	"time"

	"lead-consultant/internal/models"

	"github.com/dustin/go-humanize"
)

const (
	separator    = "────────────────"
	notSpecified = "Не указано"
	brand        = "BBKinvest"
	dateLayout   = "2006-01-02 15:04:05"
)

// Line is one labelled value of an application.
type Line struct {
	Icon  string
	Label string
	Value string
}

// Document is the channel independent rendering of an application.
type Document struct {
	Category  models.Category
	Header    string
	Color     string
	Lines     []Line
	SessionID string
	CreatedAt time.Time
}

// BuildDocument lays out the fixed per-category fields in their fixed order.
func BuildDocument(app models.Application, sessionID string, now time.Time) Document {
	doc := Document{
		Color:     "#607D8B",
		SessionID: orDefault(sessionID),
		CreatedAt: now,
	}
	if app == nil {
		doc.Header = "🆕 НОВАЯ ЗАЯВКА"
		return doc
	}
	doc.Category = app.Category()

	switch a := app.(type) {
	case *models.IndividualApplication:
		doc.Header = "🆕 НОВАЯ ЗАЯВКА: Физическое лицо"
		doc.Color = "#4CAF50"
		doc.Lines = []Line{
			{"👤", "Имя", orDefault(a.Name)},
			{"🏠", "Залог", orDefault(a.Collateral)},
			{"💰", "Сумма", rubles(a.Amount)},
			{"🎯", "Цель займа", orDefault(a.Purpose)},
			{"📞", "Телефон", orDefault(a.Phone)},
		}
	case *models.BusinessApplication:
		doc.Header = "🏢 НОВАЯ ЗАЯВКА: Бизнес"
		doc.Color = "#2196F3"
		doc.Lines = []Line{
			{"🏛️", "Компания", orDefault(a.CompanyName)},
			{"📝", "Тип", "Заемщик (бизнес)"},
			{"💰", "Сумма", rubles(a.Amount)},
			{"🔒", "Обеспечение", orDefault(a.Collateral)},
			{"🎯", "Цель займа", orDefault(a.Purpose)},
			{"📞", "Телефон", orDefault(a.Phone)},
		}
	case *models.InvestorApplication:
		doc.Header = "🤝 НОВАЯ ЗАЯВКА: Инвестор"
		doc.Color = "#9C27B0"
		doc.Lines = []Line{
			{"👤", "Имя", orDefault(a.Name)},
			{"📝", "Тип", "Инвестор"},
			{"💰", "Сумма для инвестирования", rubles(a.InvestmentAmount)},
			{"⏱️", "Горизонт инвестирования", fmt.Sprintf("%d месяцев", a.TermMonths)},
			{"🎯", "Цель", orDefault(a.InvestmentGoal)},
			{"📞", "Телефон", orDefault(a.Phone)},
		}
	}
	return doc
}

// Text is the plain text message sent to Telegram and used as the email body.
func (d Document) Text() string {
	var b strings.Builder
	b.WriteString(d.Header)
	b.WriteString("\n📅 ")
	b.WriteString(d.CreatedAt.Format(dateLayout))
	b.WriteString("\n" + separator + "\n")
	for _, l := range d.Lines {
		fmt.Fprintf(&b, "%s %s: %s\n", l.Icon, l.Label, l.Value)
	}
	b.WriteString(separator + "\n")
	b.WriteString("🔗 ID сессии: " + d.SessionID)
	return b.String()
}

// Subject is the email subject line.
func (d Document) Subject() string {
	return fmt.Sprintf("Заявка от %s - %s", d.Category.Label(), brand)
}

// FormatCompact renders the short form without icons, header or session id.
func FormatCompact(app models.Application) string {
	var lines []string
	switch a := app.(type) {
	case *models.IndividualApplication:
		lines = []string{
			"Имя: " + a.Name,
			"Залог: " + a.Collateral,
			fmt.Sprintf("Сумма: %d", a.Amount),
			"Цель займа: " + a.Purpose,
			"Телефон: " + a.Phone,
		}
	case *models.BusinessApplication:
		lines = []string{
			"Имя: " + a.CompanyName,
			"Тип: Заемщик (бизнес)",
			fmt.Sprintf("Сумма: %d", a.Amount),
			"Обеспечение: " + a.Collateral,
			"Цель займа: " + a.Purpose,
			"Телефон: " + a.Phone,
		}
	case *models.InvestorApplication:
		lines = []string{
			"Имя: " + a.Name,
			"Тип: Инвестор",
			fmt.Sprintf("Сумма для инвестирования: %d", a.InvestmentAmount),
			fmt.Sprintf("Горизонт инвестирования: %d месяцев", a.TermMonths),
			"Цель: " + a.InvestmentGoal,
			"Телефон: " + a.Phone,
		}
	}
	return strings.Join(lines, "\n")
}

func rubles(v int64) string {
	return humanize.Comma(v) + " руб."
}

func orDefault(v string) string {
	if strings.TrimSpace(v) == "" {
		return notSpecified
	}
	return v
}
