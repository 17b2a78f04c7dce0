package seed

import (
	"strings"
	"testing"
	"time"

	"DevHabit/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmbeddedData(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	d, err := Build("u_1", now)
	require.NoError(t, err)

	assert.Len(t, d.Tags, 7)
	assert.Len(t, d.Habits, 7)
	assert.Len(t, d.HabitTags, 15)

	for _, h := range d.Habits {
		assert.True(t, strings.HasPrefix(h.ID, model.HabitIDPrefix))
		assert.Equal(t, "u_1", h.UserID)
		assert.Equal(t, model.HabitStatusOngoing, h.Status)
		assert.Equal(t, now, h.CreatedAtUTC)
	}
	assert.Equal(t, "Daily Exercise", d.Habits[0].Name)
	assert.Equal(t, model.HabitTypeMeasurable, d.Habits[0].Type)
	require.NotNil(t, d.Habits[1].Milestone)
	assert.Equal(t, 100, d.Habits[1].Milestone.Target)
	assert.Equal(t, model.FrequencyMonthly, d.Habits[5].Frequency.Type)
}

func TestSeedHabitsPassValidation(t *testing.T) {
	d, err := Build("u_1", time.Now())
	require.NoError(t, err)
	v := model.NewValidator()
	for _, h := range d.Habits {
		in := model.CreateHabitInput{
			Name:        h.Name,
			Description: h.Description,
			Type:        h.Type,
			Frequency:   model.FrequencyInput{TimesPerPeriod: h.Frequency.TimesPerPeriod, Type: h.Frequency.Type},
			Target:      model.TargetInput{Value: h.Target.Value, Unit: h.Target.Unit},
		}
		assert.NoError(t, v.Habit(in), h.Name)
	}
}

func TestParseRejectsUnknownTag(t *testing.T) {
	raw := []byte("tags: []\nhabits:\n  - name: X\n    type: Binary\n    frequency: {timesPerPeriod: 1, type: Daily}\n    target: {value: 1, unit: TASKS}\n    tags: [Nope]\n")
	_, err := parse(raw, "u_1", time.Now())
	assert.ErrorContains(t, err, "unknown tag")
}

func TestParseRejectsBadEnum(t *testing.T) {
	raw := []byte("habits:\n  - name: X\n    type: Sometimes\n")
	_, err := parse(raw, "u_1", time.Now())
	assert.Error(t, err)
}
