package actioncard

import (
	"fmt"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

// Placeholder destination used when no shelter could be ranked for the
// subscriber.
const (
	placeholderShelter = "가까운 안전시설"
	placeholderMinutes = 5
)

// fallbackTemplates carry pre-written guidance per disaster type. Each
// template takes the destination name and the walking time in minutes and
// must itself pass Validate.
var fallbackTemplates = map[domain.DisasterCategory]string{
	domain.CategoryEarthquake: "지진이 발생했습니다. 탁자 아래로 들어가 머리를 보호하세요. 흔들림이 멈추면 %s(도보 약 %d분)으로 대피하세요. 엘리베이터는 절대 이용하지 마세요.",
	domain.CategoryTsunami:    "지진해일 경보가 발령되었습니다. 즉시 해안에서 떨어진 높은 곳으로 이동하세요. %s(도보 약 %d분)으로 대피하세요. 경보가 해제될 때까지 해안가 접근 금지.",
	domain.CategoryWildfire:   "산불이 확산되고 있습니다. 바람 반대 방향의 낮은 지대로 이동하세요. %s(도보 약 %d분)으로 대피하세요. 젖은 수건으로 코와 입을 가리세요.",
	domain.CategoryCivilDefense: "민방위 경보가 발령되었습니다. 즉시 %s(도보 약 %d분)으로 이동하세요. 지하 대피시설이 가장 안전합니다. 안내 방송이 나올 때까지 대기하세요.",
	domain.CategoryFlood:      "호우로 침수 위험이 있습니다. 지하 공간과 하천 주변을 피하세요. %s(도보 약 %d분)으로 이동하세요. 침수된 도로는 절대 건너지 마세요.",
	domain.CategoryTyphoon:    "태풍이 접근하고 있습니다. 창문에서 떨어진 실내에 머무르세요. 외출이 불가피하면 %s(도보 약 %d분)으로 이동하세요. 간판과 전신주 근처 접근 금지.",
	domain.CategoryFire:       "화재가 발생했습니다. 젖은 수건으로 입과 코를 막고 낮은 자세로 대피하세요. %s(도보 약 %d분)으로 이동하세요. 엘리베이터는 절대 이용하지 마세요.",
}

const genericFallback = "재난 경보가 발령되었습니다. 즉시 %s(도보 약 %d분)으로 이동하세요. 주변 안내 방송에 따라 행동하세요. 이동 중 위험 지역을 피하세요."

// Fallback renders deterministic guidance for an alert when generation
// fails or exhausts its retries.
func Fallback(alert domain.Alert, shelters []domain.RankedShelter) domain.ActionCard {
	name := placeholderShelter
	minutes := placeholderMinutes
	if len(shelters) > 0 {
		name = shelters[0].Name
		minutes = shelters[0].WalkingMinutes
	}

	tmpl, ok := fallbackTemplates[alert.Category]
	if !ok {
		tmpl = genericFallback
	}
	return domain.ActionCard{
		Text:     fmt.Sprintf(tmpl, name, minutes),
		Method:   domain.MethodFallback,
		Shelters: shelters,
	}
}
