package summarize

import (
	"fmt"
	"strings"
)

const systemPrompt = "You produce concise, accurate sermon notes. With no fluff. " +
	"Never invent facts or verses not in the transcript."

const mapTemplate = `
You are a gospel sermon note writer and summarizer.

INSTRUCTIONS:
- Use only the transcript content; do not improvise.
- Extract key points from the sermon.
- Write in expressive bullet style, e.g., "The way of the Lord is… (Genesis 1:1)".
- If Bible verses are mentioned, include them after the point.
- Normalize spoken verse formats, e.g., "John chapter 3 verse 2 to 5" -> "John 3:2-5".
- Do NOT add verses if none are mentioned.
- Include headings/subheadings where clearly implied.
- If this is not a sermon, say exactly: "This is not a sermon."

TRANSCRIPT (Part %d of %d):
%s

Summarize now into 5-10 clear bullets (with no intro/outro).
`

const reduceTemplate = `
You are a gospel sermon note writer.

Here are partial bullet lists from multiple transcript chunks:

%s

Please merge them into a single, non-redundant set of bullets:
- Keep all distinct key points.
- Remove duplicates and overlaps.
- Preserve Bible verses and normalized references.
- Keep headings/subheadings if present.
- Maintain the concise expressive style.
`

func mapPrompt(chunk string, part, total int) string {
	return fmt.Sprintf(mapTemplate, part, total, chunk)
}

func reducePrompt(partials string) string {
	return fmt.Sprintf(reduceTemplate, partials)
}

// parseBullets splits a model response into bullet strings, dropping list
// markers and blank lines.
func parseBullets(content string) []string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	bullets := make([]string, 0, len(lines))
	for _, line := range lines {
		b := strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if b != "" {
			bullets = append(bullets, b)
		}
	}
	return bullets
}

// formatPartial renders one chunk's bullets as a "- " list for the reduce call.
func formatPartial(bullets []string) string {
	lines := make([]string, len(bullets))
	for i, b := range bullets {
		lines[i] = "- " + b
	}
	return strings.Join(lines, "\n")
}
