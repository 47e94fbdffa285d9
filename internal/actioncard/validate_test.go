package actioncard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validGuidance = "지진이 발생했습니다. 즉시 탁자 아래로 들어가 머리를 보호하세요. 흔들림이 멈추면 제주시민회관으로 대피하세요."

func TestValidate_AcceptsDirectGuidance(t *testing.T) {
	assert.NoError(t, Validate(validGuidance))
}

func TestValidate_AcceptsUnitAbbreviations(t *testing.T) {
	text := "지진이 발생했습니다. 1.2km 떨어진 제주시민회관으로 대피하세요. 도보로 약 16분 걸립니다. 엘리베이터는 절대 이용하지 마세요."
	assert.NoError(t, Validate(text))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "hedging",
			text: "지진이 발생했습니다. 아마 안전할 수도 있습니다. 침착하게 행동하세요.",
			want: "hedging",
		},
		{
			name: "speculative ending",
			text: "지진이 발생한 것 같습니다. 탁자 아래로 들어가세요. 대피소로 이동하세요.",
			want: "hedging",
		},
		{
			name: "too short",
			text: "대피하세요.",
			want: "too short",
		},
		{
			name: "too few sentences",
			text: "지진이 발생했으니 즉시 제주시민회관으로 대피하시고 낙하물에 주의하세요.",
			want: "sentences",
		},
		{
			name: "too many sentences",
			text: "지진입니다. 나가세요. 뛰지 마세요. 머리를 보호하세요. 대피소로 가세요. 침착하세요.",
			want: "sentences",
		},
		{
			name: "no imperative",
			text: "지진이 발생했습니다. 진앙은 제주 인근 해역입니다. 여진이 이어지고 있습니다.",
			want: "imperative",
		},
		{
			name: "list markers",
			text: "다음을 따르세요.\n- 탁자 아래로 들어가세요.\n- 대피소로 이동하세요.",
			want: "list",
		},
		{
			name: "numbered list markers",
			text: "다음을 따르세요.\n1. 탁자 아래로 들어가세요.\n2. 대피소로 이동하세요.",
			want: "list",
		},
		{
			name: "parenthesized list markers",
			text: "다음을 따르세요.\n1) 탁자 아래로 들어가세요.\n2) 대피소로 이동하세요.",
			want: "list",
		},
		{
			name: "emoji",
			text: "🚨 지진이 발생했습니다. 탁자 아래로 들어가세요. 대피소로 이동하세요.",
			want: "emoji",
		},
		{
			name: "foreign token",
			text: "지진이 발생했습니다. Stay calm 하세요. 대피소로 이동하세요.",
			want: "non-Korean",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_LineOpeningWithDistanceIsNotAList(t *testing.T) {
	text := "지진이 발생했습니다.\n1.2km 떨어진 제주시민회관으로 대피하세요.\n낙하물에 주의하세요."
	assert.NoError(t, Validate(text))
}

func TestValidate_DecimalPointIsNotSentenceBreak(t *testing.T) {
	text := "지진이 발생했습니다. 규모는 4.5입니다. 즉시 제주시민회관으로 대피하세요."
	assert.NoError(t, Validate(text))
}
