package logscan

import (
	"regexp"
	"strings"

	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/chatsift/internal/pipeline"
)

var (
	// rolePairRe matches an inline quoted exchange:
	//   human: "..." assistant: "..."
	rolePairRe = regexp.MustCompile(`(?is)(human|user):\s*"(.+?)"\s+(assistant|ai|cursor):\s*"(.+?)"`)

	// messagesArrayRe captures the body of a "messages": [ ... ] array.
	messagesArrayRe = regexp.MustCompile(`(?s)"messages"\s*:\s*\[(.*?)\]`)

	// jsonObjRe matches flat JSON-ish objects (no nesting).
	jsonObjRe = regexp.MustCompile(`\{[^{}]*\}`)

	// htmlBlockRe matches div/span/p blocks and captures their class
	// attribute. Logs only ever carry flat fragments of markup, so a
	// tag-level match plus tag stripping is enough; no DOM parsing.
	htmlBlockRe = regexp.MustCompile(`(?is)<(div|span|p)\b[^>]*class="([^"]*)"[^>]*>(.*?)</(?:div|span|p)>`)

	tagRe = regexp.MustCompile(`<[^>]+>`)
)

// markupClassHints mark a markup block as chat content.
var markupClassHints = []string{"message", "chat", "user", "human", "ai", "assistant", "response", "llm"}

// chatFieldKeys mark a decoded log object as chat-related.
var chatFieldKeys = []string{
	"prompt", "response", "message", "content", "question", "answer",
	"input", "query", "result", "aiMessage", "userMessage",
}

// extractAll runs every extractor over one file's content. source is the
// provenance label attached to each fragment.
func extractAll(content, source string) []pipeline.RawFragment {
	var frags []pipeline.RawFragment
	frags = append(frags, extractRolePairs(content, source)...)
	frags = append(frags, extractMessageArrays(content, source)...)
	frags = append(frags, extractJSONObjects(content, source)...)
	frags = append(frags, extractMarkupBlocks(content, source)...)
	return frags
}

func textFragment(origin pipeline.Origin, role, text, source string) pipeline.RawFragment {
	return pipeline.RawFragment{
		Origin:  origin,
		Payload: role + ": " + strings.TrimSpace(text),
		Source:  source,
	}
}

// extractRolePairs emits two fragments per inline quoted exchange.
func extractRolePairs(content, source string) []pipeline.RawFragment {
	var frags []pipeline.RawFragment
	for _, m := range rolePairRe.FindAllStringSubmatch(content, -1) {
		frags = append(frags,
			textFragment(pipeline.OriginLogMatch, "user", m[2], source),
			textFragment(pipeline.OriginLogMatch, "assistant", m[4], source),
		)
	}
	return frags
}

// extractMessageArrays decodes "messages": [...] arrays and emits one
// role-tagged text fragment per entry.
func extractMessageArrays(content, source string) []pipeline.RawFragment {
	var frags []pipeline.RawFragment
	for _, m := range messagesArrayRe.FindAllStringSubmatch(content, -1) {
		var entries []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		if err := json5.Unmarshal([]byte("["+m[1]+"]"), &entries); err != nil {
			continue
		}
		for _, e := range entries {
			if e.Role == "" || e.Content == "" {
				continue
			}
			frags = append(frags, textFragment(pipeline.OriginLogMatch, e.Role, e.Content, source))
		}
	}
	return frags
}

// extractJSONObjects decodes flat JSON objects and keeps the chat-related
// ones as structured fragments; the normalizer decides role and content.
func extractJSONObjects(content, source string) []pipeline.RawFragment {
	var frags []pipeline.RawFragment
	for _, raw := range jsonObjRe.FindAllString(content, -1) {
		var obj map[string]any
		if err := json5.Unmarshal([]byte(raw), &obj); err != nil {
			continue
		}
		if !hasChatField(obj) {
			continue
		}
		// role+content objects carry their own role signal; hand them
		// over as tagged text so the role wins over key probing.
		if role, ok := obj["role"].(string); ok {
			if text, ok := obj["content"].(string); ok {
				frags = append(frags, textFragment(pipeline.OriginLogMatch, role, text, source))
				continue
			}
		}
		frags = append(frags, pipeline.RawFragment{
			Origin:  pipeline.OriginLogMatch,
			Payload: obj,
			Source:  source,
		})
	}
	return frags
}

func hasChatField(obj map[string]any) bool {
	for _, k := range chatFieldKeys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// extractMarkupBlocks strips tags out of chat-classed markup blocks and
// emits role-tagged text fragments based on the class hint.
func extractMarkupBlocks(content, source string) []pipeline.RawFragment {
	var frags []pipeline.RawFragment
	for _, m := range htmlBlockRe.FindAllStringSubmatch(content, -1) {
		class := strings.ToLower(m[2])
		chatty := false
		for _, hint := range markupClassHints {
			if strings.Contains(class, hint) {
				chatty = true
				break
			}
		}
		if !chatty {
			continue
		}
		text := strings.TrimSpace(tagRe.ReplaceAllString(m[3], " "))
		if text == "" {
			continue
		}
		role := "assistant"
		if strings.Contains(class, "user") || strings.Contains(class, "human") {
			role = "user"
		}
		frags = append(frags, textFragment(pipeline.OriginMarkupBlock, role, text, source))
	}
	return frags
}
