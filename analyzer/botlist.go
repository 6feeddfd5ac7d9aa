package analyzer

import "regexp"

// BotUnknown is the identifier returned when a request's User-Agent
// matches no known signature. Callers that want to deny all
// unidentified traffic add this identifier to their deny list.
const BotUnknown = "UNKNOWN"

// botSignatures maps a well-known bot identifier to a case-insensitive
// pattern matched against the lowercased User-Agent header. The table
// favors precision over recall: it is meant to catch the crawlers and
// monitoring agents that identify themselves honestly, the same way a
// declarative glob table resolves a known backend from a request
// field rather than trying to out-guess an adversary.
var botSignatures = map[string]*regexp.Regexp{
	"GOOGLEBOT":       regexp.MustCompile(`googlebot`),
	"BINGBOT":         regexp.MustCompile(`bingbot`),
	"DUCKDUCKBOT":     regexp.MustCompile(`duckduckbot`),
	"BAIDUSPIDER":     regexp.MustCompile(`baiduspider`),
	"YANDEXBOT":       regexp.MustCompile(`yandexbot`),
	"SLURP":           regexp.MustCompile(`slurp`),
	"FACEBOOKBOT":     regexp.MustCompile(`facebookexternalhit|facebot`),
	"TWITTERBOT":      regexp.MustCompile(`twitterbot`),
	"LINKEDINBOT":     regexp.MustCompile(`linkedinbot`),
	"SLACKBOT":        regexp.MustCompile(`slackbot`),
	"DISCORDBOT":      regexp.MustCompile(`discordbot`),
	"TELEGRAMBOT":     regexp.MustCompile(`telegrambot`),
	"WHATSAPP":        regexp.MustCompile(`whatsapp`),
	"AHREFSBOT":       regexp.MustCompile(`ahrefsbot`),
	"SEMRUSHBOT":      regexp.MustCompile(`semrushbot`),
	"MJ12BOT":         regexp.MustCompile(`mj12bot`),
	"DOTBOT":          regexp.MustCompile(`dotbot`),
	"PINGDOM":         regexp.MustCompile(`pingdom`),
	"UPTIMEROBOT":     regexp.MustCompile(`uptimerobot`),
	"CURL":            regexp.MustCompile(`^curl/`),
	"WGET":            regexp.MustCompile(`^wget/`),
	"PYTHON_REQUESTS": regexp.MustCompile(`python-requests`),
	"GO_HTTP_CLIENT":  regexp.MustCompile(`go-http-client`),
	"HEADLESS_CHROME": regexp.MustCompile(`headlesschrome`),
	"PHANTOMJS":       regexp.MustCompile(`phantomjs`),
	"OPENAI_BOT":      regexp.MustCompile(`gptbot|oai-searchbot|chatgpt-user`),
	"ANTHROPIC_BOT":   regexp.MustCompile(`anthropic-ai|claudebot`),
	"PERPLEXITYBOT":   regexp.MustCompile(`perplexitybot`),
}
