package constant

const (
	ChatMessageTypeUser      = "user"
	ChatMessageTypeAssistant = "assistant"

	SessionModeFun   = "fun"
	SessionModeLearn = "learn"

	DefaultSessionLanguage = "en"

	MaxTitleLength       = 500
	MaxContentLength     = 50000
	MaxPreviewLength     = 150
	MaxMetaLanguageLen   = 10
	MaxSearchQueryLength = 500

	MaxMessagePageLimit = 200
	MaxSessionPageLimit = 100
	MaxSearchPageLimit  = 100
	MaxRecentMessages   = 100
	MaxBulkDeleteIDs    = 100
)

// CommandVariants maps each known command type to every localized slash-keyword
// spelling a user message may contain. The key set is closed; filters referencing
// anything else are rejected.
var CommandVariants = map[string][]string{
	"solve":      {"/solve", "/реши", "/resolver", "/розв'яжи"},
	"explain":    {"/explain", "/объясни", "/explicar", "/поясни"},
	"check":      {"/check", "/проверь", "/verificar", "/перевір"},
	"example":    {"/example", "/пример", "/ejemplo", "/приклад"},
	"cheatsheet": {"/cheatsheet", "/шпаргалка", "/chuleta"},
	"test":       {"/test", "/тест", "/prueba"},
	"conspect":   {"/conspect", "/конспект", "/resumen"},
	"plan":       {"/plan", "/план"},
	"essay":      {"/essay", "/эссе", "/ensayo", "/есе"},
}

// CommandTypes lists the closed vocabulary in a stable order, used for
// validation errors and primary-command extraction.
var CommandTypes = []string{
	"solve", "explain", "check", "example", "cheatsheet",
	"test", "conspect", "plan", "essay",
}

func IsKnownCommandType(tag string) bool {
	_, ok := CommandVariants[tag]
	return ok
}

func IsValidMessageType(t string) bool {
	return t == ChatMessageTypeUser || t == ChatMessageTypeAssistant
}

func IsValidSessionMode(m string) bool {
	return m == SessionModeFun || m == SessionModeLearn
}
