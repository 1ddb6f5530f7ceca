// dcare-crm/internal/funnel/dedupe.go

package funnel

import (
	"strings"

	"dcare-crm/models"
)

// DefaultExcludedActions - чисто информационные действия, которые не несут
// смысла в истории изменений пациента и отбрасываются перед схлопыванием.
var DefaultExcludedActions = []string{
	models.ActionPatientView,
	models.ActionMessageLogView,
	models.ActionLogin,
	models.ActionLogout,
}

// DedupeLogs готовит журнал к отображению: отбрасывает информационные
// действия и схлопывает повторы по ключу (action, targetId, userId, время
// с точностью до минуты), оставляя первое вхождение в исходном порядке.
// Детерминированная и идемпотентная: DedupeLogs(DedupeLogs(x)) == DedupeLogs(x).
func DedupeLogs(logs []models.ActivityLog) []models.ActivityLog {
	return DedupeLogsExcluding(logs, DefaultExcludedActions)
}

// DedupeLogsExcluding - то же, что DedupeLogs, но с явным списком
// исключаемых действий.
func DedupeLogsExcluding(logs []models.ActivityLog, excludedActions []string) []models.ActivityLog {
	excluded := make(map[string]struct{}, len(excludedActions))
	for _, a := range excludedActions {
		excluded[a] = struct{}{}
	}

	seen := make(map[string]struct{}, len(logs))
	out := make([]models.ActivityLog, 0, len(logs))

	for _, log := range logs {
		if _, skip := excluded[log.Action]; skip {
			continue
		}

		key := dedupeKey(&log)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, log)
	}

	return out
}

// dedupeKey усекает время до минуты: два одинаковых действия одного
// пользователя над одной целью в одну минуту считаются дублем.
func dedupeKey(log *models.ActivityLog) string {
	return strings.Join([]string{
		log.Action,
		log.TargetID,
		log.UserID,
		log.Timestamp.Format("2006-01-02T15:04"),
	}, "|")
}
