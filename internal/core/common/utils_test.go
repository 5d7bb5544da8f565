package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParseJSONPlain(t *testing.T) {
	result, err := ParseJSON[payload](`{"name": "alice", "count": 3}`)
	assert.NoError(t, err)
	assert.Equal(t, "alice", result.Name)
	assert.Equal(t, 3, result.Count)
}

func TestParseJSONWithFencesAndProse(t *testing.T) {
	response := "Here is the result:\n```json\n{\"name\": \"bob\", \"count\": 1}\n```\nLet me know if you need anything else."
	result, err := ParseJSON[payload](response)
	assert.NoError(t, err)
	assert.Equal(t, "bob", result.Name)
}

func TestParseJSONNoObject(t *testing.T) {
	_, err := ParseJSON[payload]("there is no json here")
	assert.Error(t, err)
}

func TestParseJSONMalformed(t *testing.T) {
	_, err := ParseJSON[payload](`{"name": "alice", "count": }`)
	assert.Error(t, err)
}
