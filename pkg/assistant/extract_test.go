package assistant_test

import (
	"reflect"
	"testing"

	"github.com/viajeia/viajeia-go/pkg/assistant"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     assistant.ConsultInfo
	}{
		{
			name:     "destination and date",
			question: "Quiero viajar a Roma el 15 de junio",
			want: assistant.ConsultInfo{
				Destination: "Roma",
				Dates:       "15 de junio",
			},
		},
		{
			name:     "multi-word destination",
			question: "Planning a trip to New York in December 2025",
			want: assistant.ConsultInfo{
				Destination: "New York",
				Dates:       "December 2025",
			},
		},
		{
			name:     "budget with separator",
			question: "Viaje a Lima con presupuesto de $1,500",
			want: assistant.ConsultInfo{
				Destination: "Lima",
				Budget:      "1500",
			},
		},
		{
			name:     "preferences",
			question: "Busco playa y buena comida en Barcelona",
			want: assistant.ConsultInfo{
				Destination: "Barcelona",
				Preferences: []string{"relajación", "gastronomía"},
			},
		},
		{
			name:     "numeric date",
			question: "Salgo el 15/06/2024 hacia Tokio",
			want: assistant.ConsultInfo{
				Destination: "Tokio",
				Dates:       "15/06/2024",
			},
		},
		{
			name:     "nothing recognized",
			question: "Quiero unas vacaciones baratas",
			want:     assistant.ConsultInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assistant.Extract(tt.question)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %+v, want %+v", tt.question, got, tt.want)
			}
		})
	}
}
