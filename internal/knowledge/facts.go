package knowledge

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a mapping node pair by pair so the label order in
// the file survives. Values that are neither a string nor a list of strings
// are kept with no text and never selected.
func (fs *Facts) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("facts: expected a mapping at line %d", node.Line)
	}

	facts := make(Facts, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		fact := Fact{Label: key.Value}

		switch value.Kind {
		case yaml.ScalarNode:
			fact.Value = value.Value
		case yaml.SequenceNode:
			var alternatives []string
			if err := value.Decode(&alternatives); err == nil && len(alternatives) > 0 {
				fact.Alternatives = alternatives
			}
		}
		facts = append(facts, fact)
	}

	*fs = facts
	return nil
}
