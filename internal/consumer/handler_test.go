package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"sandroute/internal/logger"
	apperrors "sandroute/pkg/errors"
	"sandroute/pkg/models"
)

func TestOrderProcessor(t *testing.T) {
	processor := NewOrderProcessor(logger.NopLogger())

	tests := []struct {
		name      string
		payload   map[string]interface{}
		wantError bool
	}{
		{
			name:    "valid order",
			payload: map[string]interface{}{"order_id": "o-1", "amount": 42.5},
		},
		{
			name:    "amount optional",
			payload: map[string]interface{}{"order_id": "o-2"},
		},
		{
			name:      "missing order_id",
			payload:   map[string]interface{}{"amount": 10.0},
			wantError: true,
		},
		{
			name:      "empty payload",
			payload:   map[string]interface{}{},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := models.MessageEnvelope{ID: "m1", Payload: tt.payload}
			err := processor.Process(context.Background(), msg)
			if tt.wantError {
				assert.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
