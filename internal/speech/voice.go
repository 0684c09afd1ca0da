package speech

// Voice is a synthesis preset.
type Voice struct {
	Type         string
	Name         string
	Gender       string
	Pitch        float64
	SpeakingRate float64
	VolumeGainDb float64
}

const (
	VoiceWarm   = "warm"
	VoiceMale   = "male"
	VoiceFemale = "female"

	languageCode  = "vi-VN"
	effectProfile = "headphone-class-device"
)

// VoiceFor resolves a preset name. Empty selects warm; unknown names select
// the neutral female voice.
func VoiceFor(voiceType string) Voice {
	switch voiceType {
	case "", VoiceWarm:
		return Voice{Type: VoiceWarm, Name: "vi-VN-Wavenet-C", Gender: "FEMALE", Pitch: -3, SpeakingRate: 0.88, VolumeGainDb: 1}
	case VoiceMale:
		return Voice{Type: VoiceMale, Name: "vi-VN-Wavenet-B", Gender: "MALE", Pitch: -2, SpeakingRate: 0.9}
	default:
		return Voice{Type: VoiceFemale, Name: "vi-VN-Neural2-A", Gender: "FEMALE", SpeakingRate: 0.95}
	}
}
