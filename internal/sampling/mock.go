package sampling

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"mcp-food-diary/internal/models"
	"mcp-food-diary/internal/nutrition"
)

// Mock answers with canned estimates so the server runs without a gateway.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

type estimate struct {
	food                          string
	calories, carbs, protein, fat int
}

// first match wins
var mockFoods = []estimate{
	{"egg", 78, 1, 6, 5},
	{"banana", 105, 27, 1, 0},
	{"apple", 95, 25, 0, 0},
	{"rice", 205, 45, 4, 0},
	{"toast", 80, 15, 3, 1},
	{"coffee", 5, 0, 0, 0},
}

var (
	leadingCount = regexp.MustCompile(`^\s*(\d+)\s`)
	minutes      = regexp.MustCompile(`(\d+)\s*(?:min|minutes)`)
)

func (m *Mock) Complete(ctx context.Context, req models.ModelRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &models.ModelCallError{Err: err}
	}

	entry := nutrition.EntryFromPrompt(req.UserPrompt)
	lower := strings.ToLower(entry)

	reply := map[string]interface{}{"name": entry}
	if req.ImageRef == "" && nutrition.HasExerciseKeyword(entry) {
		mins := 30
		if mm := minutes.FindStringSubmatch(lower); mm != nil {
			mins, _ = strconv.Atoi(mm[1])
		}
		reply["type"] = "exercise"
		reply["calories"] = mins * 8
	} else {
		est := estimate{"", 250, 30, 10, 8}
		for _, e := range mockFoods {
			if strings.Contains(lower, e.food) {
				est = e
				break
			}
		}
		count := 1
		if mm := leadingCount.FindStringSubmatch(lower); mm != nil {
			count, _ = strconv.Atoi(mm[1])
		}
		reply["type"] = "food"
		reply["calories"] = est.calories * count
		reply["carbs"] = est.carbs * count
		reply["protein"] = est.protein * count
		reply["fat"] = est.fat * count
	}

	out, err := json.Marshal(reply)
	if err != nil {
		return "", &models.ModelCallError{Err: err}
	}
	return string(out), nil
}
