package llm

import "strings"

// stripWrappingFence removes a markdown code fence that wraps an entire
// backend response. Models asked for markdown sometimes return the
// document inside ```markdown ... ``` anyway; the fence is transport
// noise, not content, so it is stripped before the document reaches the
// export pipeline. Fences inside the document are left alone.
func stripWrappingFence(response string) string {
	trimmed := strings.TrimSpace(response)

	switch {
	case strings.HasPrefix(trimmed, "```markdown"):
		trimmed = strings.TrimPrefix(trimmed, "```markdown")
	case strings.HasPrefix(trimmed, "```md"):
		trimmed = strings.TrimPrefix(trimmed, "```md")
	case strings.HasPrefix(trimmed, "```\n"):
		trimmed = strings.TrimPrefix(trimmed, "```")
	default:
		return trimmed
	}
	trimmed = strings.TrimSpace(trimmed)

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}
