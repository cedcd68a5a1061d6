package scenario

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lead-consultant/internal/models"

	"github.com/dustin/go-humanize"
)

// WelcomeGreeting opens every new dialog.
const WelcomeGreeting = "Здравствуйте! Я ИИ-консультант BBKinvest. Чем могу помочь?"

const fallbackMessage = "Извините, произошла ошибка."

var messages = map[models.Step]string{
	models.StepWelcome:                 WelcomeGreeting,
	models.StepAskLoanOrInvest:         "Вы рассматриваете получение займа или хотите инвестировать?",
	models.StepAskIndividualOrBusiness: "Займ оформляется на физическое лицо или на бизнес (ЮЛ/ИП)?",

	models.StepIndividualAskName: "Консультирую по займам под залог автомобиля или недвижимости. " +
		"Для оформления заявки потребуется несколько данных.\n\nВведите ваше имя:",
	models.StepIndividualAskCollateral: "Укажите залог: марку, модель и год выпуска авто или описание недвижимости.\n" +
		"Пример: Kia Sportage, 2021 год",
	models.StepIndividualAskAmount:  "Желаемая сумма займа (в рублях):",
	models.StepIndividualAskPurpose: "Цель займа:\n(например: развитие бизнеса, личные нужды, недвижимость)",
	models.StepIndividualAskPhone:   "Введите номер телефона для связи:",
	models.StepIndividualConfirm: "Спасибо! Проверьте данные:\n\n" +
		"Имя: {{name}}\nЗалог: {{collateral}}\nСумма: {{amount}} руб.\nЦель: {{purpose}}\nТелефон: {{phone}}\n\n" +
		"Всё верно?",

	models.StepBusinessAskCompanyName: "Консультирую по займам для юридических лиц и ИП. Уточните, какое обеспечение имеется:\n\n" +
		"• Недвижимость (офис, склад, производство)\n" +
		"• Движимое имущество (оборудование, транспорт, техника)\n" +
		"• Интеллектуальная собственность (патенты, товарные знаки)\n\n" +
		"Укажите полное название компании или ФИО с указанием 'ИП':\n" +
		"Примеры:\n- Для ООО: 'ООО «ТехноПром»'\n- Для ИП: 'ИП Иванов Игорь'",
	models.StepBusinessAskAmount: "Желаемая сумма займа (в рублях):",
	models.StepBusinessAskCollateral: "Опишите обеспечение подробно (можно несколько видов):\n" +
		"Пример: Станки (оборудование 2023 г.), товарный знак 'Марка'",
	models.StepBusinessAskPurpose: "Цель займа:",
	models.StepBusinessAskPhone:   "Контактный телефон для связи:",
	models.StepBusinessConfirm: "Проверьте данные:\n\n" +
		"Компания: {{company_name}}\nСумма: {{amount}} руб.\nОбеспечение: {{collateral}}\nЦель: {{purpose}}\nТелефон: {{phone}}\n\n" +
		"Всё верно?",

	models.StepInvestorAskName: "Консультирую по инвестиционным продуктам под обеспечение залогового имущества. " +
		"Для подбора варианта потребуется информация.\n\nВведите ваше имя:",
	models.StepInvestorAskAmount: "Сумма для инвестирования (в рублях):",
	models.StepInvestorAskTerm:   "Горизонт инвестирования (в месяцах):",
	models.StepInvestorAskGoal:   "Цель инвестирования:\n(например: пассивный доход, сохранение капитала, диверсификация)",
	models.StepInvestorAskPhone:  "Контактный телефон для связи:",
	models.StepInvestorConfirm: "Проверьте данные:\n\n" +
		"Имя: {{name}}\nСумма: {{investment_amount}} руб.\nСрок: {{term_months}} мес.\nЦель: {{investment_goal}}\nТелефон: {{phone}}\n\n" +
		"Всё верно?",

	models.StepCompleted: "Заявка отправлена! Специалист свяжется с вами в ближайшее время. Спасибо!",
}

var options = map[models.Step][]string{
	models.StepAskLoanOrInvest:         {"Займ", "Инвестировать"},
	models.StepAskIndividualOrBusiness: {"Физическое лицо", "Бизнес"},
	models.StepIndividualConfirm:       {"Да, отправить заявку", "Нет, исправить"},
	models.StepBusinessConfirm:         {"Да, отправить", "Нет, исправить"},
	models.StepInvestorConfirm:         {"Да, отправить", "Нет, исправить"},
}

// Message renders the prompt of step with the collected values. A template
// with any placeholder left unresolved is returned raw.
func Message(step models.Step, app models.Application) string {
	tmpl, ok := messages[step]
	if !ok {
		return fallbackMessage
	}
	if app == nil || !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	return renderTemplate(tmpl, app.Fields())
}

// Options returns a copy of the step's answer buttons, never nil.
func Options(step models.Step) []string {
	return append([]string{}, options[step]...)
}

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

func renderTemplate(tmpl string, data map[string]interface{}) string {
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if _, ok := data[m[1]]; !ok {
			return tmpl
		}
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(ph string) string {
		return FormatValue(data[ph[2:len(ph)-2]])
	})
}

// FormatValue prints a collected value; amounts get thousands separators.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return humanize.Comma(x)
	case int:
		return strconv.Itoa(x)
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
