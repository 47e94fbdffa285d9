package actioncard

import (
	"fmt"
	"strings"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

// BuildPrompt renders the generation prompt for one alert and one
// subscriber. The prompt is written entirely in Korean so the model stays
// in register with the delivered guidance.
func BuildPrompt(alert domain.Alert, profile domain.Profile, shelters []domain.RankedShelter) string {
	var b strings.Builder

	b.WriteString("당신은 재난 안전 안내 전문가입니다. 아래 정보를 바탕으로 즉시 실행할 수 있는 대피 행동 지침을 작성하세요.\n\n")

	b.WriteString("[재난 정보]\n")
	fmt.Fprintf(&b, "- 재난 유형: %s\n", labelOrDefault(alert.CategoryLabel))
	fmt.Fprintf(&b, "- 발생 지역: %s\n", valueOrDefault(alert.AreaName, "해당 지역"))
	if alert.Severity != "" {
		fmt.Fprintf(&b, "- 긴급 단계: %s\n", alert.Severity)
	}
	if alert.Message != "" {
		fmt.Fprintf(&b, "- 재난 문자 내용: %s\n", alert.Message)
	}

	b.WriteString("\n[대상자 정보]\n")
	fmt.Fprintf(&b, "- 연령대: %s\n", valueOrDefault(profile.AgeGroup, "알 수 없음"))
	fmt.Fprintf(&b, "- 이동 능력: %s\n", valueOrDefault(profile.Mobility, "제한 없음"))
	if profile.HeightCM != nil {
		fmt.Fprintf(&b, "- 신장: %dcm\n", *profile.HeightCM)
	}
	if profile.MedicalNote != "" {
		fmt.Fprintf(&b, "- 건강 참고사항: %s\n", profile.MedicalNote)
	}

	b.WriteString("\n[주변 대피소]\n")
	if len(shelters) == 0 {
		b.WriteString("- 확인된 대피소 없음. 가까운 안전시설로 안내하세요.\n")
	} else {
		for _, s := range shelters {
			fmt.Fprintf(&b, "- %s (도보 약 %d분, %.1fkm)\n", s.Name, s.WalkingMinutes, s.DistanceKM)
		}
	}

	b.WriteString("\n[작성 규칙]\n")
	b.WriteString("- 반드시 한국어로만 작성하세요. 단위 표기(km, m)는 허용됩니다.\n")
	b.WriteString("- 3문장 이상 5문장 이하로 작성하세요.\n")
	b.WriteString("- 명령형 존댓말로 작성하세요. 예: ~하세요, ~하십시오.\n")
	b.WriteString("- 추측하는 표현을 쓰지 마세요. 확실한 지시만 작성하세요.\n")
	b.WriteString("- 이모지, 번호 목록, 글머리 기호를 쓰지 마세요.\n")
	b.WriteString("- 가장 가까운 대피소 이름과 도보 소요 시간을 포함하세요.\n")

	return b.String()
}

func labelOrDefault(label string) string {
	return valueOrDefault(label, "재난")
}

func valueOrDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
