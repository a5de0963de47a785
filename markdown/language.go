package markdown

import "strings"

// languageAliases folds common fence shorthands onto canonical names.
var languageAliases = map[string]string{
	"js":         "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"py":         "python",
	"rb":         "ruby",
	"golang":     "go",
	"sh":         "bash",
	"shell":      "bash",
	"zsh":        "bash",
	"yml":        "yaml",
	"dockerfile": "docker",
	"md":         "markdown",
	"text":       "plain text",
	"txt":        "plain text",
	"plaintext":  "plain text",
}

// supportedLanguages is the set of canonical names the export targets
// accept for code blocks. Fence tokens outside this set degrade to
// "plain text" rather than failing the block downstream.
var supportedLanguages = map[string]struct{}{
	"abap": {}, "bash": {}, "c": {}, "c++": {}, "c#": {}, "clojure": {},
	"css": {}, "dart": {}, "diff": {}, "docker": {}, "elixir": {},
	"erlang": {}, "go": {}, "graphql": {}, "groovy": {}, "haskell": {},
	"html": {}, "java": {}, "javascript": {}, "json": {}, "julia": {},
	"kotlin": {}, "latex": {}, "less": {}, "lua": {}, "makefile": {},
	"markdown": {}, "matlab": {}, "mermaid": {}, "nix": {}, "objective-c": {},
	"ocaml": {}, "perl": {}, "php": {}, "plain text": {}, "powershell": {},
	"prolog": {}, "protobuf": {}, "python": {}, "r": {}, "ruby": {},
	"rust": {}, "sass": {}, "scala": {}, "scheme": {}, "scss": {},
	"sql": {}, "swift": {}, "typescript": {}, "verilog": {},
	"vhdl": {}, "webassembly": {}, "xml": {}, "yaml": {},
}

// NormalizeLanguage maps a fence info string onto a canonical code-block
// language. Lookup is case-insensitive; aliases are folded first, and
// anything still unrecognized, including the empty string, comes back as
// "plain text".
func NormalizeLanguage(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if alias, ok := languageAliases[token]; ok {
		token = alias
	}
	if _, ok := supportedLanguages[token]; ok {
		return token
	}
	return "plain text"
}
