package lexicon

// Keys are matched case-insensitively on whole-word edges; when two keys
// share a prefix the longer one wins.
var russianAbbreviations = map[string]string{
	"т.е.":   "то есть",
	"т.д.":   "так далее",
	"т.п.":   "тому подобное",
	"т.к.":   "так как",
	"и т.д.": "и так далее",
	"и т.п.": "и тому подобное",
	"и др.":  "и другие",
	"и пр.":  "и прочие",
	"и т.о.": "и таким образом",
	"и т.с.": "и так сказать",

	"г.":     "город",
	"гг.":    "годы",
	"в.":     "век",
	"вв.":    "века",
	"н.э.":   "нашей эры",
	"до н.э.": "до нашей эры",
	"мин.":   "минут",
	"сек.":   "секунд",
	"час.":   "часов",
	"дн.":    "дней",
	"нед.":   "недель",
	"мес.":   "месяцев",

	"с.":    "страницы",
	"д.":    "деревня",
	"п.":    "пункт",
	"р.":    "река",
	"оз.":   "озеро",
	"м.":    "место",
	"обл.":  "область",
	"респ.": "республика",
	"р-н":   "район",
	"ул.":   "улица",
	"пр.":   "проспект",
	"пер.":  "переулок",
	"пл.":   "площадь",
	"наб.":  "набережная",

	"ООО":  "общество с ограниченной ответственностью",
	"ОООО": "общество с ограниченной ответственностью",
	"ЗАО":  "закрытое акционерное общество",
	"ОАО":  "открытое акционерное общество",
	"ПАО":  "публичное акционерное общество",
	"АО":   "акционерное общество",
	"ИП":   "индивидуальный предприниматель",
	"ТОО":  "товарищество с ограниченной ответственностью",

	"др.":       "доктор",
	"д-р":       "доктор",
	"проф.":     "профессор",
	"доц.":      "доцент",
	"акад.":     "академик",
	"чл.-корр.": "член-корреспондент",
	"к.т.н.":    "кандидат технических наук",
	"д.т.н.":    "доктор технических наук",
	"к.ф.-м.н.": "кандидат физико-математических наук",
	"д.ф.-м.н.": "доктор физико-математических наук",

	"ген.":      "генерал",
	"полк.":     "полковник",
	"подполк.":  "подполковник",
	"кап.":      "капитан",
	"ст. лейт.": "старший лейтенант",
	"мл. лейт.": "младший лейтенант",
	"лейт.":     "лейтенант",

	"мед.": "медицинский",
	"мл.":  "младший",
	"зам.": "заместитель",
	"зав.": "заведующий",
	"нач.": "начальник",

	"т.":       "том",
	"ч.":       "часть",
	"гл.":      "глава",
	"ст.":      "статья",
	"разд.":    "раздел",
	"подразд.": "подраздел",
	"пп.":      "подпункты",
	"рис.":     "рисунок",
	"табл.":    "таблица",
	"стр.":     "страницы",

	"тыс.": "тысяч",
	"млн":  "миллионов",
	"млрд": "миллиардов",
	"руб.": "рублей",
	"коп.": "копеек",
}

var russianContractions = map[string]string{
	"щас":  "сейчас",
	"ща":   "сейчас",
	"чё":   "что",
	"ваще": "вообще",
	"тыщ":  "тысяч",
	"спс":  "спасибо",
	"пжл":  "пожалуйста",
}

var russianStopwords = []string{
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как", "а", "то", "все", "она",
	"так", "его", "но", "да", "ты", "к", "у", "же", "вы", "за", "бы", "по", "только", "ее",
	"мне", "было", "вот", "от", "меня", "еще", "нет", "о", "из", "ему", "теперь", "когда",
	"даже", "ну", "вдруг", "ли", "если", "уже", "или", "ни", "быть", "был", "него", "до",
	"вас", "нибудь", "опять", "уж", "вам", "ведь", "там", "потом", "себя", "ничего", "ей",
	"может", "они", "тут", "где", "есть", "надо", "ней", "для", "мы", "тебя", "их", "чем",
	"была", "сам", "чтоб", "без", "будто", "чего", "раз", "тоже", "себе", "под", "будет",
	"ж", "тогда", "кто", "этот", "того", "потому", "этого", "какой", "совсем", "ним",
	"здесь", "этом", "один", "почти", "мой", "тем", "чтобы", "нее", "сейчас", "были",
	"куда", "зачем", "всех", "никогда", "можно", "при", "наконец", "два", "об", "другой",
	"хоть", "после", "над", "больше", "тот", "через", "эти", "нас", "про", "всего", "них",
	"какая", "много", "разве", "три", "эту", "моя", "впрочем", "хорошо", "свою", "этой",
	"перед", "иногда", "лучше", "чуть", "том", "нельзя", "такой", "им", "более", "всегда",
	"конечно", "всю", "между", "это",
}
