package seed

import (
	_ "embed"
	"fmt"
	"time"

	"DevHabit/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type fileTag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type fileHabit struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Frequency   struct {
		TimesPerPeriod int    `yaml:"timesPerPeriod"`
		Type           string `yaml:"type"`
	} `yaml:"frequency"`
	Target struct {
		Value int    `yaml:"value"`
		Unit  string `yaml:"unit"`
	} `yaml:"target"`
	Milestone int      `yaml:"milestone"`
	Tags      []string `yaml:"tags"`
}

type file struct {
	Tags   []fileTag   `yaml:"tags"`
	Habits []fileHabit `yaml:"habits"`
}

// Data is a ready-to-insert demo data set with fresh ids.
type Data struct {
	Tags      []model.Tag
	Habits    []model.Habit
	HabitTags []model.HabitTag
}

// Build parses the embedded demo data for userID.
func Build(userID string, now time.Time) (Data, error) {
	return parse(seedYAML, userID, now)
}

func parse(raw []byte, userID string, now time.Time) (Data, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Data{}, fmt.Errorf("parse seed data: %w", err)
	}
	now = now.UTC()

	var d Data
	tagIDs := make(map[string]string, len(f.Tags))
	for _, t := range f.Tags {
		desc := t.Description
		tag := model.Tag{
			ID:           model.NewID(model.TagIDPrefix),
			UserID:       userID,
			Name:         t.Name,
			Description:  &desc,
			CreatedAtUTC: now,
		}
		tagIDs[t.Name] = tag.ID
		d.Tags = append(d.Tags, tag)
	}

	for _, fh := range f.Habits {
		habitType, err := model.ParseHabitType(fh.Type)
		if err != nil {
			return Data{}, fmt.Errorf("seed habit %q: %w", fh.Name, err)
		}
		freqType, err := model.ParseFrequencyType(fh.Frequency.Type)
		if err != nil {
			return Data{}, fmt.Errorf("seed habit %q: %w", fh.Name, err)
		}
		desc := fh.Description
		h := model.Habit{
			ID:           model.NewID(model.HabitIDPrefix),
			UserID:       userID,
			Name:         fh.Name,
			Description:  &desc,
			Type:         habitType,
			Frequency:    model.Frequency{TimesPerPeriod: fh.Frequency.TimesPerPeriod, Type: freqType},
			Target:       model.Target{Value: fh.Target.Value, Unit: fh.Target.Unit},
			Status:       model.HabitStatusOngoing,
			CreatedAtUTC: now,
		}
		if fh.Milestone > 0 {
			h.Milestone = &model.Milestone{Target: fh.Milestone}
		}
		d.Habits = append(d.Habits, h)

		for _, name := range fh.Tags {
			tagID, ok := tagIDs[name]
			if !ok {
				return Data{}, fmt.Errorf("seed habit %q: unknown tag %q", fh.Name, name)
			}
			d.HabitTags = append(d.HabitTags, model.HabitTag{HabitID: h.ID, TagID: tagID, CreatedAtUTC: now})
		}
	}
	return d, nil
}
