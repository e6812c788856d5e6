package tts

import (
	"fmt"
	"math/rand"
	"strings"
)

// Voice tables for Google Cloud TTS, grouped by pricing tier.
var availableVoices = map[string][]string{
	"standard": {
		"en-AU-Standard-A", "en-AU-Standard-B", "en-AU-Standard-C", "en-AU-Standard-D",
		"en-GB-Standard-A", "en-GB-Standard-B", "en-GB-Standard-C", "en-GB-Standard-D",
		"en-GB-Standard-F", "en-GB-Standard-N", "en-GB-Standard-O",
		"en-IN-Standard-A", "en-IN-Standard-B", "en-IN-Standard-C", "en-IN-Standard-D",
		"en-IN-Standard-E", "en-IN-Standard-F",
		"en-US-Standard-A", "en-US-Standard-B", "en-US-Standard-C", "en-US-Standard-D",
		"en-US-Standard-E", "en-US-Standard-F", "en-US-Standard-G", "en-US-Standard-H",
		"en-US-Standard-I", "en-US-Standard-J",
	},
	"premium": {
		"en-AU-Neural2-A", "en-AU-Neural2-B", "en-AU-Neural2-C", "en-AU-Neural2-D",
		"en-AU-Wavenet-A", "en-AU-Wavenet-B", "en-AU-Wavenet-C", "en-AU-Wavenet-D",
		"en-GB-Neural2-A", "en-GB-Neural2-B", "en-GB-Neural2-C", "en-GB-Neural2-D",
		"en-GB-Wavenet-A", "en-GB-Wavenet-B", "en-GB-Wavenet-C", "en-GB-Wavenet-D",
		"en-IN-Neural2-A", "en-IN-Neural2-B", "en-IN-Neural2-C", "en-IN-Neural2-D",
		"en-IN-Wavenet-A", "en-IN-Wavenet-B", "en-IN-Wavenet-C", "en-IN-Wavenet-D",
		"en-US-Neural2-A", "en-US-Neural2-C", "en-US-Neural2-D", "en-US-Neural2-E",
		"en-US-Neural2-F", "en-US-Neural2-G", "en-US-Neural2-H", "en-US-Neural2-I",
		"en-US-Neural2-J", "en-US-Polyglot-1",
		"en-US-Wavenet-A", "en-US-Wavenet-B", "en-US-Wavenet-C", "en-US-Wavenet-D",
		"en-US-Wavenet-E", "en-US-Wavenet-F", "en-US-Wavenet-G", "en-US-Wavenet-H",
		"en-US-Wavenet-I", "en-US-Wavenet-J",
	},
	"studio": {
		"en-GB-Studio-B", "en-GB-Studio-C",
		"en-US-Studio-O", "en-US-Studio-Q",
	},
}

// RandomVoice picks a random voice from the requested voice types
// ("standard", "premium", "studio"). An unknown type is a validation
// error.
func RandomVoice(voiceTypes []string, rng *rand.Rand) (string, error) {
	if len(voiceTypes) == 0 {
		voiceTypes = []string{"standard"}
	}
	var pool []string
	for _, vt := range voiceTypes {
		voices, ok := availableVoices[vt]
		if !ok {
			return "", fmt.Errorf("tts: invalid voice type %q (valid: standard, premium, studio)", vt)
		}
		pool = append(pool, voices...)
	}
	if len(pool) == 0 {
		return "", fmt.Errorf("tts: no voices available for %v", voiceTypes)
	}
	return pool[rng.Intn(len(pool))], nil
}

// languageCode derives the BCP-47 language code from a voice name like
// "en-US-Standard-A".
func languageCode(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
