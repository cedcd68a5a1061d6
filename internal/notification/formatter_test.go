package notification

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"lead-consultant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// ==========================
// Full text
// ==========================

func TestBuildDocument_Individual(t *testing.T) {
	doc := BuildDocument(createTestApplication(), "sess-42", fixedTime)

	want := strings.Join([]string{
		"🆕 НОВАЯ ЗАЯВКА: Физическое лицо",
		"📅 2025-03-14 09:26:53",
		separator,
		"👤 Имя: Иван",
		"🏠 Залог: Kia Sportage, 2021",
		"💰 Сумма: 1,000,000 руб.",
		"🎯 Цель займа: личные нужды",
		"📞 Телефон: 9123456789",
		separator,
		"🔗 ID сессии: sess-42",
	}, "\n")

	assert.Equal(t, want, doc.Text())
	assert.Equal(t, models.CategoryIndividual, doc.Category)
	assert.Equal(t, "#4CAF50", doc.Color)
}

func TestBuildDocument_Business(t *testing.T) {
	app := &models.BusinessApplication{
		CompanyName: "ООО Ромашка",
		Amount:      5000000,
		Purpose:     "оборотные средства",
		Phone:       "+79123456789",
	}
	text := BuildDocument(app, "b-1", fixedTime).Text()

	assert.True(t, strings.HasPrefix(text, "🏢 НОВАЯ ЗАЯВКА: Бизнес\n"))
	assert.Contains(t, text, "🏛️ Компания: ООО Ромашка\n")
	assert.Contains(t, text, "📝 Тип: Заемщик (бизнес)\n")
	assert.Contains(t, text, "💰 Сумма: 5,000,000 руб.\n")
	assert.Contains(t, text, "🔒 Обеспечение: Не указано\n")
	assert.Contains(t, text, "📞 Телефон: +79123456789\n")
}

func TestBuildDocument_Investor(t *testing.T) {
	app := &models.InvestorApplication{
		Name:             "Мария",
		InvestmentAmount: 2500000,
		TermMonths:       24,
		InvestmentGoal:   "пассивный доход",
		Phone:            "89123456789",
	}
	doc := BuildDocument(app, "i-1", fixedTime)
	text := doc.Text()

	assert.Contains(t, text, "🤝 НОВАЯ ЗАЯВКА: Инвестор")
	assert.Contains(t, text, "💰 Сумма для инвестирования: 2,500,000 руб.\n")
	assert.Contains(t, text, "⏱️ Горизонт инвестирования: 24 месяцев\n")
	assert.Contains(t, text, "🎯 Цель: пассивный доход\n")
	assert.Equal(t, "#9C27B0", doc.Color)
}

func TestBuildDocument_FieldOrder(t *testing.T) {
	doc := BuildDocument(createTestApplication(), "s", fixedTime)

	labels := make([]string, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{"Имя", "Залог", "Сумма", "Цель займа", "Телефон"}, labels)
}

func TestBuildDocument_MissingValues(t *testing.T) {
	doc := BuildDocument(&models.IndividualApplication{}, "", fixedTime)
	text := doc.Text()

	assert.Contains(t, text, "👤 Имя: Не указано\n")
	assert.Contains(t, text, "💰 Сумма: 0 руб.\n")
	assert.True(t, strings.HasSuffix(text, "🔗 ID сессии: Не указано"))
}

func TestBuildDocument_NilApplication(t *testing.T) {
	doc := BuildDocument(nil, "s", fixedTime)

	assert.Equal(t, models.CategoryNone, doc.Category)
	assert.Empty(t, doc.Lines)
	assert.Equal(t, "#607D8B", doc.Color)
	assert.Equal(t, "Заявка от Не указано - BBKinvest", doc.Subject())
}

// ==========================
// Subject and compact form
// ==========================

func TestDocument_Subject(t *testing.T) {
	tests := []struct {
		app  models.Application
		want string
	}{
		{&models.IndividualApplication{}, "Заявка от Физическое лицо - BBKinvest"},
		{&models.BusinessApplication{}, "Заявка от Бизнес - BBKinvest"},
		{&models.InvestorApplication{}, "Заявка от Инвестор - BBKinvest"},
	}
	for _, tt := range tests {
		t.Run(string(tt.app.Category()), func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDocument(tt.app, "s", fixedTime).Subject())
		})
	}
}

func TestFormatCompact(t *testing.T) {
	got := FormatCompact(createTestApplication())

	assert.Equal(t, strings.Join([]string{
		"Имя: Иван",
		"Залог: Kia Sportage, 2021",
		"Сумма: 1000000",
		"Цель займа: личные нужды",
		"Телефон: 9123456789",
	}, "\n"), got)
	assert.NotContains(t, got, "ID сессии")
	assert.Empty(t, FormatCompact(nil))
}

// ==========================
// HTML
// ==========================

func TestDocument_HTML(t *testing.T) {
	app := createTestApplication()
	app.Purpose = `<script>alert("x")</script>`

	html, err := BuildDocument(app, "sess-42", fixedTime).HTML()
	require.NoError(t, err)

	assert.Contains(t, html, "background-color: #4CAF50;")
	assert.Contains(t, html, "<h2>🆕 НОВАЯ ЗАЯВКА: Физическое лицо</h2>")
	assert.Contains(t, html, "<p>2025-03-14 09:26:53</p>")
	assert.Contains(t, html, "ID сессии: sess-42")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

// ==========================
// History ring
// ==========================

func TestHistory_Order(t *testing.T) {
	h := NewHistory(3)
	assert.Empty(t, h.Records())

	for i := 0; i < 5; i++ {
		h.Add(models.NotificationRecord{SessionID: fmt.Sprintf("s-%d", i), Success: i%2 == 0})
	}

	records := h.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "s-2", records[0].SessionID)
	assert.Equal(t, "s-4", records[2].SessionID)
	assert.Equal(t, 3, h.Len())

	stats := h.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Success)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, stats.Last10, 3)
}

func TestHistory_DefaultLimit(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < DefaultHistoryLimit+1; i++ {
		h.Add(models.NotificationRecord{})
	}
	assert.Equal(t, DefaultHistoryLimit, h.Len())
}

func TestHistory_RecordsIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Add(models.NotificationRecord{SessionID: "a"})

	records := h.Records()
	records[0].SessionID = "changed"

	assert.Equal(t, "a", h.Records()[0].SessionID)
}
