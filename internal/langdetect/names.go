package langdetect

// displayNames maps lowercase ISO 639-1 style codes to display names.
var displayNames = map[string]string{
	"en":    "English",
	"es":    "Spanish",
	"fr":    "French",
	"ar":    "Arabic",
	"zh":    "Chinese",
	"zh-cn": "Chinese (Simplified)",
	"zh-tw": "Chinese (Traditional)",
	"ru":    "Russian",
	"de":    "German",
	"hi":    "Hindi",
	"ur":    "Urdu",
	"fa":    "Persian (Farsi)",
	"tr":    "Turkish",
	"pt":    "Portuguese",
	"it":    "Italian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"id":    "Indonesian",
	"ms":    "Malay",
	"bn":    "Bengali",
	"pa":    "Punjabi",
	"ta":    "Tamil",
	"te":    "Telugu",
	"vi":    "Vietnamese",
	"th":    "Thai",
	"sw":    "Swahili",
	"pl":    "Polish",
	"uk":    "Ukrainian",
	"ro":    "Romanian",
	"nl":    "Dutch",
	"el":    "Greek",
	"he":    "Hebrew",
	"cs":    "Czech",
	"sv":    "Swedish",
	"da":    "Danish",
	"fi":    "Finnish",
	"no":    "Norwegian",
	"nb":    "Norwegian",
	"nn":    "Norwegian",
	"hu":    "Hungarian",
	"bg":    "Bulgarian",
	"sr":    "Serbian",
	"hr":    "Croatian",
	"sk":    "Slovak",
	"sl":    "Slovenian",
	"lt":    "Lithuanian",
	"lv":    "Latvian",
	"et":    "Estonian",
	"am":    "Amharic",
	"so":    "Somali",
	"ha":    "Hausa",
	"yo":    "Yoruba",
	"ig":    "Igbo",
	"zu":    "Zulu",
	"xh":    "Xhosa",
	"af":    "Afrikaans",
	"rw":    "Kinyarwanda",
	"mg":    "Malagasy",
	"ml":    "Malayalam",
	"mr":    "Marathi",
	"gu":    "Gujarati",
	"kn":    "Kannada",
	"ne":    "Nepali",
	"si":    "Sinhala",
	"dv":    "Dhivehi (Maldivian)",
	"kk":    "Kazakh",
	"uz":    "Uzbek",
	"tk":    "Turkmen",
	"ky":    "Kyrgyz",
	"az":    "Azerbaijani",
	"ps":    "Pashto",
	"ku":    "Kurdish",
	"my":    "Burmese",
	"km":    "Khmer",
	"lo":    "Lao",
	"tl":    "Tagalog (Filipino)",
}

// DisplayName returns the name for code, or code itself when unknown.
func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	return code
}
