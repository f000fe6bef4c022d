package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptPicksSystemPrompt(t *testing.T) {
	assert.Equal(t, foodSystemPrompt, BuildPrompt(Input{Text: "3 eggs"}).SystemPrompt)
	assert.Equal(t, exerciseSystemPrompt, BuildPrompt(Input{Text: "30 min running"}).SystemPrompt)

	req := BuildPrompt(Input{Text: "lunch", ImageRef: "https://img.example/lunch.jpg"})
	assert.Equal(t, imageSystemPrompt, req.SystemPrompt)
	assert.Equal(t, "https://img.example/lunch.jpg", req.ImageRef)
}

func TestEntryFromPrompt(t *testing.T) {
	req := BuildPrompt(Input{Text: `2 "jumbo" eggs`, ImageRef: "https://img.example/eggs.jpg"})
	assert.Equal(t, `2 "jumbo" eggs`, EntryFromPrompt(req.UserPrompt))
	assert.Equal(t, "", EntryFromPrompt("no entry here"))
}
