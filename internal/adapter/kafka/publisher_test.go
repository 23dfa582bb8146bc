package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	alert := domain.DailyRiskAssessment{
		Latitude:            33.4,
		Longitude:           -112.1,
		Date:                time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		InitTime:            time.Date(2026, 7, 13, 12, 0, 0, 0, time.UTC),
		MaxTemperature:      45,
		MaxHeatIndex:        46.1,
		Level:               domain.RiskWarning,
		Message:             domain.RiskWarning.Message(),
		ConsecutiveHotHours: 6,
		NighttimeCooling:    16,
		Region:              "desert_southwest",
	}

	msg, err := serializeToMessage(alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("33.4000:-112.1000:2026-07-14"), msg.Key)
	assert.Contains(t, string(msg.Value), `"risk_level":2`)
	assert.Contains(t, string(msg.Value), `"risk_label":"Warning"`)
	assert.Contains(t, string(msg.Value), `"region":"desert_southwest"`)
	assert.Contains(t, string(msg.Value), `"init_time":"2026-07-13T12:00:00Z"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "risk_level", msg.Headers[0].Key)
	assert.Equal(t, []byte("Warning"), msg.Headers[0].Value)
	assert.Equal(t, "region", msg.Headers[1].Key)
	assert.Equal(t, []byte("desert_southwest"), msg.Headers[1].Value)
}
