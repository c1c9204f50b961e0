package models

// Supported UI and output languages
const (
	LanguageEnglish  = "en"
	LanguageKorean   = "ko"
	LanguageJapanese = "ja"
	LanguageChinese  = "zh"
)

// SupportedLanguages lists the language codes the product accepts
var SupportedLanguages = []string{LanguageEnglish, LanguageKorean, LanguageJapanese, LanguageChinese}

// LanguageName maps a language code to the name used in model prompts.
// Unknown codes fall back to English.
func LanguageName(code string) string {
	switch code {
	case LanguageKorean:
		return "Korean"
	case LanguageJapanese:
		return "Japanese"
	case LanguageChinese:
		return "Chinese"
	default:
		return "English"
	}
}

// IsSupportedLanguage reports whether code is one of SupportedLanguages
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}
