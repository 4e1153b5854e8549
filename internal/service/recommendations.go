package service

import (
	"fmt"

	"github.com/eye-triage-server/internal/domain"
	"github.com/eye-triage-server/internal/matrix"
)

// Clinic contact details used across all recommendation languages.
const (
	clinicPhone    = "+994 12 541 19 00"
	clinicWhatsApp = "https://wa.me/994555512400"
)

// recommendationSet holds the per-language action text keyed by tier, plus
// protocol-specific first-aid lines prepended on the emergency path.
type recommendationSet struct {
	tiers          map[domain.UrgencyLevel][]string
	protocolPrefix map[domain.Protocol]string
	timeframeLine  string // fmt verb receives the category timeframe
}

// Text tables are data, not logic: one nested mapping per language with an
// explicit fallback, so languages cannot drift apart structurally.
var recommendationTables = map[domain.Language]recommendationSet{
	domain.LanguageAZ: {
		tiers: map[domain.UrgencyLevel][]string{
			domain.UrgencyEmergency: {
				"❗ Dərhal klinikamıza zəng edin",
				"☎️ Telefon: " + clinicPhone,
				"📱 WhatsApp: " + clinicWhatsApp,
				"🏥 Yaxınlıqdakı təcili göz yardımına gedin",
			},
			domain.UrgencyUrgent: {
				"📞 Bu gün və ya sabah üçün təcili müayinə",
				"WhatsApp yazın: " + clinicWhatsApp,
				"Zəng edin: " + clinicPhone,
			},
			domain.UrgencySoon: {
				"📋 Bu həftə müayinə tövsiyə olunur",
				"Əlverişli vaxt seçin və qeydiyyat edin",
				"WhatsApp: " + clinicWhatsApp,
			},
			domain.UrgencyRoutine: {
				"✅ Planlı müayinə",
				"Sizə uyğun tarixi seçə bilərsiniz",
				"Əlaqə: " + clinicPhone,
			},
			domain.UrgencyElective: {
				"✅ Planlı müayinə",
				"Sizə uyğun tarixi seçə bilərsiniz",
				"Əlaqə: " + clinicPhone,
			},
		},
		protocolPrefix: map[domain.Protocol]string{
			domain.ProtocolChemicalInjury: "⚠️ ƏVVƏLCƏ: 15 dəqiqə təmiz su ilə gözü yuyun",
			domain.ProtocolEyeTrauma:      "⚠️ Göz ovuşdurmayın, təzyiq etməyin",
		},
		timeframeLine: "⏰ Tövsiyə olunan müddət: %s",
	},
	domain.LanguageRU: {
		tiers: map[domain.UrgencyLevel][]string{
			domain.UrgencyEmergency: {
				"❗ Немедленно позвоните в нашу клинику",
				"☎️ Телефон: " + clinicPhone,
				"📱 WhatsApp: " + clinicWhatsApp,
				"🏥 Обратитесь в ближайшую неотложную глазную помощь",
			},
			domain.UrgencyUrgent: {
				"📞 Срочный осмотр сегодня или завтра",
				"Напишите в WhatsApp: " + clinicWhatsApp,
				"Позвоните: " + clinicPhone,
			},
			domain.UrgencySoon: {
				"📋 Рекомендуется осмотр на этой неделе",
				"Выберите удобное время и запишитесь",
				"WhatsApp: " + clinicWhatsApp,
			},
			domain.UrgencyRoutine: {
				"✅ Плановый осмотр",
				"Вы можете выбрать удобную дату",
				"Контакт: " + clinicPhone,
			},
			domain.UrgencyElective: {
				"✅ Плановый осмотр",
				"Вы можете выбрать удобную дату",
				"Контакт: " + clinicPhone,
			},
		},
		protocolPrefix: map[domain.Protocol]string{
			domain.ProtocolChemicalInjury: "⚠️ СНАЧАЛА: промывайте глаз чистой водой 15 минут",
			domain.ProtocolEyeTrauma:      "⚠️ Не трите глаз и не давите на него",
		},
		timeframeLine: "⏰ Рекомендуемый срок: %s",
	},
	domain.LanguageEN: {
		tiers: map[domain.UrgencyLevel][]string{
			domain.UrgencyEmergency: {
				"❗ Call our clinic immediately",
				"☎️ Phone: " + clinicPhone,
				"📱 WhatsApp: " + clinicWhatsApp,
				"🏥 Go to the nearest emergency eye care",
			},
			domain.UrgencyUrgent: {
				"📞 Urgent examination today or tomorrow",
				"Message us on WhatsApp: " + clinicWhatsApp,
				"Call: " + clinicPhone,
			},
			domain.UrgencySoon: {
				"📋 Examination recommended this week",
				"Pick a convenient time and register",
				"WhatsApp: " + clinicWhatsApp,
			},
			domain.UrgencyRoutine: {
				"✅ Scheduled examination",
				"You can choose a date that suits you",
				"Contact: " + clinicPhone,
			},
			domain.UrgencyElective: {
				"✅ Scheduled examination",
				"You can choose a date that suits you",
				"Contact: " + clinicPhone,
			},
		},
		protocolPrefix: map[domain.Protocol]string{
			domain.ProtocolChemicalInjury: "⚠️ FIRST: rinse the eye with clean water for 15 minutes",
			domain.ProtocolEyeTrauma:      "⚠️ Do not rub or press on the eye",
		},
		timeframeLine: "⏰ Recommended timeframe: %s",
	},
}

// generateRecommendations builds the ordered, localized action list for a
// tier. Protocol first-aid instructions are prepended on the emergency
// path; the category's informational timeframe is appended last. A
// localization gap falls back to the fallback language per tier, so
// emergency instructions can never silently disappear.
func generateRecommendations(urgency domain.UrgencyLevel, record *matrix.SymptomRecord, lang domain.Language) []string {
	lang = lang.Normalize()
	set := recommendationTables[lang]
	fallback := recommendationTables[domain.FallbackLanguage]

	lines := set.tiers[urgency]
	if len(lines) == 0 {
		lines = fallback.tiers[urgency]
	}

	recommendations := make([]string, 0, len(lines)+2)

	if urgency == domain.UrgencyEmergency && record != nil {
		prefix := set.protocolPrefix[record.Protocol]
		if prefix == "" {
			prefix = fallback.protocolPrefix[record.Protocol]
		}
		if prefix != "" {
			recommendations = append(recommendations, prefix)
		}
	}

	recommendations = append(recommendations, lines...)

	if record != nil && record.Timeframe != "" {
		line := set.timeframeLine
		if line == "" {
			line = fallback.timeframeLine
		}
		recommendations = append(recommendations, fmt.Sprintf(line, record.Timeframe))
	}

	return recommendations
}
