package language

import (
	"regexp"
	"strings"
)

type Language string

const (
	English   Language = "en"
	Malayalam Language = "ml"
	Manglish  Language = "manglish"
)

func (l Language) String() string {
	return string(l)
}

func (l Language) Valid() bool {
	switch l {
	case English, Malayalam, Manglish:
		return true
	}
	return false
}

// Parse accepts a language code or its English name.
func Parse(code string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "english":
		return English, true
	case "ml", "malayalam":
		return Malayalam, true
	case "manglish":
		return Manglish, true
	}
	return "", false
}

// manglishWords are romanized Malayalam function words, verb forms and
// college terms with Malayalam case endings.
var manglishWords = []string{
	"enthu", "enthanu", "enthaa", "ethra", "evide", "evidey", "aaru", "aaranu", "engane", "enganey",
	"eppo", "eppol", "eppozha", "enthina", "enthinanu", "peru", "pera", "enn", "ennu", "enth",
	"namaskaram", "namaskar", "sugham", "sughamano", "sughamaano", "nanni", "sthothram", "nannayittu",
	"kollam", "mathi", "undu", "undo", "illa", "illaa", "aanu", "anu", "aanallo", "allallo", "athe",
	"athey", "alle", "ille", "und", "undoo", "illaaa", "parayan", "parayoo", "parayamo", "undakum",
	"venam", "vende", "vendam", "ariyam", "ariyilla", "ariyumo", "poyi", "poyallo", "arinjilla",
	"nokku", "nokkoo", "nokkanam", "cheyyuka", "cheyyanam", "kudeyanu", "kitta", "kittum", "kittuo",
	"tharam", "tharao", "tharanam", "kittumo", "parayo", "parayumo", "tharo", "tharumo", "njan",
	"njaan", "enikk", "enikku", "enik", "nee", "ningal", "ningalu", "avan", "aval", "avar", "athil",
	"ini", "athinu", "ithu", "athu", "namukku", "nammal", "njangal", "nammude", "ente", "ninte",
	"avante", "collegil", "colleginte", "admissionu", "classil", "libraryil", "hostelil", "examinu",
	"feeu", "coursinu", "semesteril", "placementu", "principalinte", "hodinte", "departmentil",
	"labsil", "collegeinu", "feesu", "coursil", "branchil", "seatsil", "cutoff", "rankinu", "innu",
	"innale", "naale", "ippo", "ippol", "angane", "ivide", "avide", "engott", "evdey", "evidanu",
	"evidaya", "evideyanu", "nokki", "kodukk", "aayirikkum", "cheyyum", "edukkam", "edukkumo",
	"thudangum", "kazhinju", "mathiyaayo", "okke", "enna", "ennal", "atho", "allenkil", "pakshe",
	"pakshey", "pinneed", "pore", "kure", "ellam", "onnum", "onum", "onnumilla", "paranju", "kelkkoo",
	"kelkku", "varikku", "parayuvo", "ariyuvo", "kittuvo", "tharuvo", "cheyyuvo",
}

var manglishSuffixes = []string{"il", "inu", "anu", "allo", "umo", "aam", "um", "oo"}

var manglishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`enthu\s+.+`),
	regexp.MustCompile(`evide\s+.+`),
	regexp.MustCompile(`engane\s+.+`),
	regexp.MustCompile(`ariyumo`),
	regexp.MustCompile(`.+\s+aanu`),
	regexp.MustCompile(`.+\s+undu`),
	regexp.MustCompile(`.+\s+entha(nu)?`),
	regexp.MustCompile(`.+il\s+.+`),
}

var englishFunctionWords = map[string]struct{}{
	"what": {}, "where": {}, "when": {}, "how": {}, "who": {}, "which": {}, "why": {},
	"is": {}, "are": {}, "the": {}, "a": {}, "an": {},
}

// Loanwords show up in Manglish sentences as often as in English ones.
var englishLoanwords = map[string]struct{}{
	"admission": {}, "fee": {}, "fees": {}, "course": {}, "college": {}, "library": {},
	"hostel": {}, "placement": {}, "exam": {}, "semester": {}, "department": {},
	"faculty": {}, "principal": {}, "scholarship": {}, "certificate": {}, "degree": {},
	"engineering": {}, "computer": {}, "science": {},
}

const tokenCutset = "?!.,;:'\"()"

// Detect classifies text as English, Malayalam or Manglish. Any rune from
// the Malayalam block decides Malayalam outright; otherwise the text is
// scored and ties go to English.
func Detect(text string) Language {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return English
	}
	if HasMalayalamScript(normalized) {
		return Malayalam
	}

	manglish, english := score(normalized)
	if manglish >= 2 && manglish > english {
		return Manglish
	}
	return English
}

// HasMalayalamScript reports whether s contains a rune in U+0D00..U+0D7F.
func HasMalayalamScript(s string) bool {
	for _, r := range s {
		if r >= 0x0D00 && r <= 0x0D7F {
			return true
		}
	}
	return false
}

func score(normalized string) (manglish, english float64) {
	for _, token := range strings.Fields(normalized) {
		token = strings.Trim(token, tokenCutset)
		if token == "" {
			continue
		}
		if _, ok := englishFunctionWords[token]; ok {
			english++
			continue
		}
		if _, ok := englishLoanwords[token]; ok {
			english += 0.5
			continue
		}
		if matchesManglishWord(token) {
			manglish += 2
		}
		for _, suffix := range manglishSuffixes {
			if strings.HasSuffix(token, suffix) {
				manglish++
				break
			}
		}
	}

	for _, pattern := range manglishPatterns {
		if pattern.MatchString(normalized) {
			manglish += 2
			break
		}
	}
	return manglish, english
}

// matchesManglishWord anchors containment at the start of the word so that
// short English tokens do not hit the tail of a longer romanized word.
func matchesManglishWord(token string) bool {
	for _, word := range manglishWords {
		switch {
		case token == word:
			return true
		case len(word) >= 4 && strings.HasPrefix(token, word):
			return true
		case len(token) >= 4 && strings.HasPrefix(word, token):
			return true
		}
	}
	return false
}
