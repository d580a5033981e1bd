package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDatagram(t *testing.T) {
	token := "aabb1122:ccdd3344"

	tests := []struct {
		name     string
		payload  []byte
		expected Message
	}{
		{
			name:     "Probe marker",
			payload:  EncodeProbe(),
			expected: Message{Kind: KindProbe},
		},
		{
			name:     "Identify with token",
			payload:  EncodeIdentify(token),
			expected: Message{Kind: KindIdentify, Token: token},
		},
		{
			name:     "Identify with empty token",
			payload:  EncodeIdentify(""),
			expected: Message{Kind: KindIdentify, Token: ""},
		},
		{
			name:     "Empty payload",
			payload:  []byte{},
			expected: Message{Kind: KindUnknown},
		},
		{
			name:     "Unrelated payload",
			payload:  []byte("meow:nonsense"),
			expected: Message{Kind: KindUnknown},
		},
		{
			name:     "Probe marker with trailing junk is not a probe",
			payload:  append(EncodeProbe(), 'x'),
			expected: Message{Kind: KindUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDatagram(tt.payload))
		})
	}
}
