package formatting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTree(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]any
		expected string
	}{
		{
			name:     "Empty map",
			data:     map[string]any{},
			expected: " └─No items.\n",
		},
		{
			name:     "Single entry",
			data:     map[string]any{"name": "alice"},
			expected: " └─name: alice\n",
		},
		{
			name: "Keys sorted, last entry closes the branch",
			data: map[string]any{"b": "2", "a": "1"},
			expected: "" +
				" ├─a: 1\n" +
				" └─b: 2\n",
		},
		{
			name: "Nested map recurses with child prefix",
			data: map[string]any{
				"name": "alice",
				"peers": map[string]any{
					"10.0.0.2:3000": "User 1",
				},
			},
			expected: "" +
				" ├─name: alice\n" +
				" └─peers:\n" +
				"     └─10.0.0.2:3000: User 1\n",
		},
		{
			name:     "Non-string value",
			data:     map[string]any{"count": 3},
			expected: " └─count: 3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tree(tt.data, ""))
		})
	}
}

func TestTree_NestedEmptyMap(t *testing.T) {
	out := Tree(map[string]any{"peers": map[string]any{}}, "")
	assert.Equal(t, " └─peers:\n     └─No items.\n", out)
}
