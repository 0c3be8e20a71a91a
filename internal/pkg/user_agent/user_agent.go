// Package user_agent resolves browser and operating system names from
// raw User-Agent strings using PCRE patterns loaded from embedded YAML
// databases.
package user_agent

import (
	"embed"
	"fmt"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

// UserAgent is the result of parsing a raw User-Agent string.
type UserAgent struct {
	UserAgent string
	OS        string
	Browser   string
	Bot       bool
}

// Unknown is reported when a field cannot be resolved.
const Unknown = "Unknown"

//go:embed database/oss.yml
//go:embed database/browsers.yml
//go:embed database/bots.yml
var databaseFiles embed.FS

// BrowserEntry is one browser pattern in browsers.yml. Entries are
// matched in file order, so more specific patterns come first.
type BrowserEntry struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

// OSEntry is one operating system pattern in oss.yml.
type OSEntry struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

// BotEntry is one crawler/bot pattern in bots.yml.
type BotEntry struct {
	Regex string `yaml:"regex"`
	Name  string `yaml:"name"`
}

// RegexCache lazily compiles and caches PCRE patterns.
type RegexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *RegexCache {
	return &RegexCache{
		compiled: make(map[string]*pcre.Regexp),
	}
}

func (rc *RegexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	// Double-check pattern
	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

// Global parser instance
var (
	parser *Parser
	once   sync.Once
)

// Parser matches user agents against the embedded pattern databases.
type Parser struct {
	browsers   []BrowserEntry
	oss        []OSEntry
	bots       []BotEntry
	regexCache *RegexCache
}

func getParser() *Parser {
	once.Do(func() {
		parser = &Parser{
			regexCache: newRegexCache(),
		}

		if data, err := databaseFiles.ReadFile("database/browsers.yml"); err == nil {
			if err := yaml.Unmarshal(data, &parser.browsers); err != nil {
				fmt.Printf("Error parsing browsers.yml: %v\n", err)
			}
		}

		if data, err := databaseFiles.ReadFile("database/oss.yml"); err == nil {
			if err := yaml.Unmarshal(data, &parser.oss); err != nil {
				fmt.Printf("Error parsing oss.yml: %v\n", err)
			}
		}

		if data, err := databaseFiles.ReadFile("database/bots.yml"); err == nil {
			if err := yaml.Unmarshal(data, &parser.bots); err != nil {
				fmt.Printf("Error parsing bots.yml: %v\n", err)
			}
		}
	})
	return parser
}

func (p *Parser) parseBot(userAgent string) *BotEntry {
	for _, bot := range p.bots {
		if regex, err := p.regexCache.get(bot.Regex); err == nil {
			if regex.MatchString(userAgent) {
				return &bot
			}
		}
	}
	return nil
}

func (p *Parser) parseBrowser(userAgent string) string {
	for _, entry := range p.browsers {
		if regex, err := p.regexCache.get(entry.Regex); err == nil {
			if regex.MatchString(userAgent) {
				return entry.Name
			}
		}
	}
	return Unknown
}

func (p *Parser) parseOS(userAgent string) string {
	for _, entry := range p.oss {
		if regex, err := p.regexCache.get(entry.Regex); err == nil {
			if regex.MatchString(userAgent) {
				return entry.Name
			}
		}
	}
	return Unknown
}

// ParseUserAgent resolves OS and browser names for a raw User-Agent
// string. Bots carry the bot name in the Browser field.
func ParseUserAgent(userAgent string) UserAgent {
	parser := getParser()

	if userAgent == "" {
		return UserAgent{
			UserAgent: userAgent,
			OS:        Unknown,
			Browser:   Unknown,
		}
	}

	// Check for bots first
	if bot := parser.parseBot(userAgent); bot != nil {
		return UserAgent{
			UserAgent: userAgent,
			OS:        Unknown,
			Browser:   bot.Name,
			Bot:       true,
		}
	}

	return UserAgent{
		UserAgent: userAgent,
		OS:        parser.parseOS(userAgent),
		Browser:   parser.parseBrowser(userAgent),
	}
}
