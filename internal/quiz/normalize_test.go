package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberOptions(values ...string) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{ID: v, Text: v}
	}
	return opts
}

func TestEvaluate_Text(t *testing.T) {
	q := Question{ID: 1, Type: TypeText, CorrectAnswer: "Paris"}

	tests := []struct {
		name    string
		input   string
		correct bool
	}{
		{"exact", "Paris", true},
		{"case insensitive", "pARIS", true},
		{"surrounding whitespace", "  paris \n", true},
		{"different word", "Lyon", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, correct, err := Evaluate(q, Answer{Text: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.correct, correct)
		})
	}
}

func TestEvaluate_ClickIsOrderIndependent(t *testing.T) {
	q := Question{ID: 2, Type: TypeClick, CorrectAnswer: "2,4,6", Options: numberOptions("1", "2", "3", "4", "5", "6")}

	orders := [][]string{
		{"2", "4", "6"},
		{"6", "2", "4"},
		{"4", "6", "2"},
	}
	for _, order := range orders {
		normalized, correct, err := Evaluate(q, Answer{Selected: order})
		require.NoError(t, err)
		assert.Equal(t, "2,4,6", normalized)
		assert.True(t, correct, "order %v", order)
	}

	_, correct, err := Evaluate(q, Answer{Selected: []string{"2", "4"}})
	require.NoError(t, err)
	assert.False(t, correct)
}

func TestEvaluate_ClickMapsIdsToTrimmedText(t *testing.T) {
	q := Question{
		ID:            3,
		Type:          TypeClick,
		CorrectAnswer: "cat, dog",
		Options: []Option{
			{ID: "a", Text: " dog "},
			{ID: "b", Text: "cat"},
			{ID: "c", Text: "fish"},
		},
	}

	normalized, correct, err := Evaluate(q, Answer{Selected: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "cat,dog", normalized)
	assert.True(t, correct)
}

func TestEvaluate_DragIsOrderDependent(t *testing.T) {
	q := Question{ID: 4, Type: TypeDrag, CorrectAnswer: "1,2,5,8", Options: numberOptions("1", "2", "5", "8")}

	normalized, correct, err := Evaluate(q, Answer{Dropped: []string{"1", "2", "5", "8"}})
	require.NoError(t, err)
	assert.Equal(t, "1,2,5,8", normalized)
	assert.True(t, correct)

	normalized, correct, err = Evaluate(q, Answer{Dropped: []string{"2", "1", "5", "8"}})
	require.NoError(t, err)
	assert.Equal(t, "2,1,5,8", normalized)
	assert.False(t, correct)
}

func TestEvaluate_FreehandAlwaysAccepted(t *testing.T) {
	for _, typ := range []QuestionType{TypeDraw, TypePaint} {
		q := Question{ID: 5, Type: typ, CorrectAnswer: "equilateral triangle"}

		normalized, correct, err := Evaluate(q, Answer{})
		require.NoError(t, err)
		assert.True(t, correct)
		assert.Equal(t, "equilateral triangle", normalized)
	}
}

func TestEvaluate_UnknownOption(t *testing.T) {
	q := Question{ID: 6, Type: TypeDrag, CorrectAnswer: "1", Options: numberOptions("1")}

	_, _, err := Evaluate(q, Answer{Dropped: []string{"9"}})
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestNormalizerFor(t *testing.T) {
	inputs := map[QuestionType]InputKind{
		TypeText:  InputFreeText,
		TypeClick: InputMultiSelect,
		TypeDrag:  InputOrdered,
		TypeDraw:  InputCanvas,
		TypePaint: InputCanvas,
	}
	for typ, kind := range inputs {
		n, err := NormalizerFor(typ)
		require.NoError(t, err)
		assert.Equal(t, kind, n.Input())
	}

	_, err := NormalizerFor("essay")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestScoreRules_Apply(t *testing.T) {
	rules := DefaultScoreRules()

	score, delta := rules.Apply(0, true, false)
	assert.Equal(t, 10, score)
	assert.Equal(t, 10, delta)

	score, delta = rules.Apply(12, false, false)
	assert.Equal(t, 7, score)
	assert.Equal(t, -5, delta)

	score, delta = rules.Apply(3, false, true)
	assert.Equal(t, 0, score)
	assert.Equal(t, -3, delta)

	score, delta = rules.Apply(0, false, false)
	assert.Equal(t, 0, score)
	assert.Equal(t, 0, delta)
}

func TestScoreRules_NeverNegative(t *testing.T) {
	rules := DefaultScoreRules()
	sequences := [][]bool{
		{false, false, false, false},
		{true, false, false, false, false},
		{false, true, false, true, false, false, false},
	}

	for _, seq := range sequences {
		score := 0
		for i, correct := range seq {
			score, _ = rules.Apply(score, correct, i%2 == 0 && !correct)
			assert.GreaterOrEqual(t, score, 0)
		}
	}
}

func TestClampTimeSpent(t *testing.T) {
	assert.Equal(t, 0, ClampTimeSpent(-4, 300))
	assert.Equal(t, 42, ClampTimeSpent(42, 300))
	assert.Equal(t, 300, ClampTimeSpent(301, 300))
}
