package lexicon

var englishAbbreviations = map[string]string{
	"e.g.":    "for example",
	"i.e.":    "that is",
	"etc.":    "et cetera",
	"vs.":     "versus",
	"approx.": "approximately",
	"dept.":   "department",
	"govt.":   "government",
	"Mr.":     "mister",
	"Mrs.":    "missus",
	"Dr.":     "doctor",
	"Prof.":   "professor",
	"Gen.":    "general",
	"Sen.":    "senator",
	"Rep.":    "representative",
	"Jr.":     "junior",
	"Sr.":     "senior",
	"Inc.":    "incorporated",
	"Corp.":   "corporation",
	"Ltd.":    "limited",
	"U.S.":    "United States",
	"U.K.":    "United Kingdom",
}

var englishContractions = map[string]string{
	"can't":     "cannot",
	"won't":     "will not",
	"don't":     "do not",
	"doesn't":   "does not",
	"didn't":    "did not",
	"isn't":     "is not",
	"aren't":    "are not",
	"wasn't":    "was not",
	"weren't":   "were not",
	"hasn't":    "has not",
	"haven't":   "have not",
	"shouldn't": "should not",
	"couldn't":  "could not",
	"wouldn't":  "would not",
	"I'm":       "I am",
	"it's":      "it is",
	"let's":     "let us",
	"they're":   "they are",
	"we're":     "we are",
	"you're":    "you are",
	"I've":      "I have",
	"we've":     "we have",
	"they've":   "they have",
	"I'll":      "I will",
	"we'll":     "we will",
	"they'll":   "they will",
	"I'd":       "I would",
}

var englishStopwords = []string{
	"a", "an", "the", "and", "or", "but", "if", "of", "at", "by", "for", "with", "about",
	"to", "from", "in", "on", "into", "over", "under", "is", "are", "was", "were", "be",
	"been", "being", "have", "has", "had", "do", "does", "did", "not", "no", "so", "than",
	"too", "very", "can", "will", "just", "this", "that", "these", "those", "it", "its",
	"he", "she", "they", "we", "you", "i", "me", "him", "her", "them", "us", "my", "our",
	"your", "their", "his", "as", "then", "there", "here", "what", "which", "who", "whom",
}
