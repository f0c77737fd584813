package neo4j

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-assistant/backend/internal/language"
)

func TestJoinLegs(t *testing.T) {
	legs := [][]string{
		{"You are at the main entrance", "Go straight", "You have reached the Administrative Block"},
		{"You are at the Administrative Block", "Go straight", "You have reached the central library"},
	}

	assert.Equal(t, []string{
		"You are at the main entrance",
		"Go straight",
		"You have reached the Administrative Block",
		"Go straight",
		"You have reached the central library",
	}, JoinLegs(legs))

	assert.Empty(t, JoinLegs(nil))
}

func TestLegsFromDriverValues(t *testing.T) {
	raw := []interface{}{
		[]interface{}{"a", "b"},
		[]interface{}{"c", 7},
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, legsFrom(raw))
	assert.Nil(t, legsFrom("not a list"))
}

func TestCompleteRequiresEveryLeg(t *testing.T) {
	assert.True(t, complete([][]string{{"a"}, {"b"}}))
	assert.False(t, complete([][]string{{"a"}, {}}))
	assert.False(t, complete(nil))
}

func TestStepsColumn(t *testing.T) {
	assert.Equal(t, "steps_ml", stepsColumn(language.Malayalam))
	assert.Equal(t, "steps_manglish", stepsColumn(language.Manglish))
	assert.Equal(t, "steps_en", stepsColumn(language.English))
}
