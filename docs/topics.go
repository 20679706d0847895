// Package docs embeds the user documentation served by `lsc topic`.
package docs

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed *.md
var docs embed.FS

// Topic returns the content of one documentation topic, or of all of them
// concatenated when topic is "*".
func Topic(topic string) (string, error) {
	if topic == "*" {
		return Topics(All()...)
	}
	content, err := docs.ReadFile(topic + ".md")
	if err != nil {
		return "", fmt.Errorf("topic %q not found, see `lsc topic` for the list", topic)
	}
	return string(content), nil
}

// Topics returns the content of several topics concatenated together.
func Topics(topics ...string) (string, error) {
	var b strings.Builder
	for _, topic := range topics {
		content, err := Topic(topic)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// All returns the sorted list of available topics. The readme is the index,
// not a topic.
func All() []string {
	entries, _ := docs.ReadDir(".")
	var topics []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == "readme" {
			continue
		}
		topics = append(topics, name)
	}
	sort.Strings(topics)
	return topics
}
