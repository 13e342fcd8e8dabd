package sanitize

import (
	"testing"

	"github.com/peyoba/Text2Image-audio/app/config"
	"github.com/peyoba/Text2Image-audio/app/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSanitizer() *Sanitizer {
	return New(logger.New(config.LogConfig{Level: "error", Output: "stdout"}))
}

func TestSanitizePassesThroughEnglish(t *testing.T) {
	s := newTestSanitizer()

	clean, usedFallback, err := s.Sanitize("a cute cat, masterpiece, best quality")
	require.NoError(t, err)
	assert.False(t, usedFallback)
	assert.Equal(t, "a cute cat, masterpiece, best quality", clean)
}

func TestSanitizeStripsCJK(t *testing.T) {
	s := newTestSanitizer()

	clean, usedFallback, err := s.Sanitize("a cute cat 一只可爱的猫 sitting on grass")
	require.NoError(t, err)
	assert.False(t, usedFallback)
	// 提取出的片段以单个空格拼接，片段自身的首尾空白原样保留
	assert.Equal(t, "a cute cat   sitting on grass", clean)
}

func TestSanitizeFallbackOnPureCJK(t *testing.T) {
	s := newTestSanitizer()

	raw := "一只可爱的猫"
	clean, usedFallback, err := s.Sanitize(raw)
	require.NoError(t, err)
	assert.True(t, usedFallback)
	assert.Equal(t, raw, clean)
}

func TestSanitizeEmptyInputIsHardFailure(t *testing.T) {
	s := newTestSanitizer()

	_, _, err := s.Sanitize("")
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestSanitizeIdempotent(t *testing.T) {
	s := newTestSanitizer()

	inputs := []string{
		"a cute cat",
		"photorealistic portrait, 8k, sharp focus!",
		"mixed 中文 and english text with details",
		"  spaced   out   words  ",
	}

	for _, input := range inputs {
		first, usedFallback, err := s.Sanitize(input)
		require.NoError(t, err)
		if usedFallback {
			continue
		}
		second, usedFallback, err := s.Sanitize(first)
		require.NoError(t, err)
		assert.False(t, usedFallback)
		assert.Equal(t, first, second, "二次清洗结果应与首次一致: %q", input)
	}
}

func TestSanitizeKeepsCommonPunctuation(t *testing.T) {
	s := newTestSanitizer()

	input := `(close-up portrait), [high detail]: "cinematic" lighting; 50mm / f1.8!`
	clean, usedFallback, err := s.Sanitize(input)
	require.NoError(t, err)
	assert.False(t, usedFallback)
	assert.Equal(t, input, clean)
}
