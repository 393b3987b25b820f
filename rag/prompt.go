package rag

import (
	"fmt"
	"strings"

	"github.com/SaiNageswarS/health-assistant-rag/classifier"
	"github.com/SaiNageswarS/health-assistant-rag/reply"
	"github.com/SaiNageswarS/health-assistant-rag/retrieval"
)

var structuredReplySchema = reply.MustCompileSchema("structured_reply.json", `{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "minLength": 1},
		"disclaimer": {"type": "string"},
		"medicines": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string"},
					"price": {"type": ["string", "number", "null"]},
					"image": {"type": ["string", "null"]},
					"department": {"type": ["string", "null"]}
				}
			}
		}
	}
}`)

func groundedPrompt(query string, department classifier.Department, passages []retrieval.Passage) string {
	return strings.Join([]string{
		"You're a retrieval augmented healthcare assistant. Answer the user's question using only the catalog context below.",
		"Suggest medicines from the context only, with their prices and images, and remind the user to consult a doctor.",
		fmt.Sprintf("If the context is not enough, reply exactly %q.", updateContextMarker),
		"",
		"Output Contract:",
		outputContract(),
		"",
		"User's question: " + query,
		"Department: " + string(department),
		"",
		"Context:",
		formatPassages(passages),
	}, "\n")
}

func formatPassages(passages []retrieval.Passage) string {
	if len(passages) == 0 {
		return "(no matching catalog entries)"
	}

	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "[%d] (source: %s)\n%s\n", i+1, p.Source, strings.TrimSpace(p.Text))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func outputContract() string {
	return `Return JSON only: {"message": string, "medicines": [{"name": string, "price": string, "image": string, "department": string}], "disclaimer": string}. ` +
		`Use an empty medicines list when nothing in the context fits.`
}

func repairPrompt(err error) string {
	reason := "it was not a JSON object"
	if err != nil {
		reason = err.Error()
	}
	return "Your last reply could not be used because " + reason + ". " + outputContract()
}

func noMoreContextPrompt() string {
	return "No more catalog context is available. Answer with the context you have. " + outputContract()
}
